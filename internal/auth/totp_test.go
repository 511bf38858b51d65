package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Enrollment Generation Tests
// ============================================================================

func TestTOTPManager_GenerateEnrollment_Success(t *testing.T) {
	tm := NewTOTPManager("Nedcloud Solutions")

	enrollment, err := tm.GenerateEnrollment("admin@nedcloud.nl")
	require.NoError(t, err)

	assert.NotEmpty(t, enrollment.Secret)
	assert.Contains(t, enrollment.URI, "otpauth://totp/")
	assert.Contains(t, enrollment.URI, "admin@nedcloud.nl")
	assert.Contains(t, enrollment.URI, "Nedcloud")
}

func TestTOTPManager_GenerateEnrollment_UniqueSecrets(t *testing.T) {
	tm := NewTOTPManager("Nedcloud Solutions")

	first, err := tm.GenerateEnrollment("admin@nedcloud.nl")
	require.NoError(t, err)
	second, err := tm.GenerateEnrollment("admin@nedcloud.nl")
	require.NoError(t, err)

	assert.NotEqual(t, first.Secret, second.Secret)
}

func TestTOTPManager_GenerateEnrollment_QRCodeFormat(t *testing.T) {
	tm := NewTOTPManager("Nedcloud Solutions")

	enrollment, err := tm.GenerateEnrollment("admin@nedcloud.nl")
	require.NoError(t, err)

	require.Contains(t, enrollment.QRCode, "data:image/png;base64,")

	pngData, err := base64.StdEncoding.DecodeString(enrollment.QRCode[len("data:image/png;base64,"):])
	require.NoError(t, err)
	require.Greater(t, len(pngData), 4)

	// PNG signature: 137 80 78 71
	assert.Equal(t, byte(137), pngData[0])
	assert.Equal(t, byte(80), pngData[1])
	assert.Equal(t, byte(78), pngData[2])
	assert.Equal(t, byte(71), pngData[3])
}

// ============================================================================
// Code Verification Tests
// ============================================================================

func TestTOTPManager_VerifyCode_CurrentStep(t *testing.T) {
	tm := NewTOTPManager("Nedcloud Solutions")
	enrollment, err := tm.GenerateEnrollment("admin@nedcloud.nl")
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	assert.True(t, tm.VerifyCode(code, enrollment.Secret))
}

func TestTOTPManager_VerifyCode_AdjacentSteps(t *testing.T) {
	tm := NewTOTPManager("Nedcloud Solutions")
	enrollment, err := tm.GenerateEnrollment("admin@nedcloud.nl")
	require.NoError(t, err)

	// ±1 step of clock skew is tolerated
	pastCode, err := totp.GenerateCode(enrollment.Secret, time.Now().Add(-30*time.Second))
	require.NoError(t, err)
	assert.True(t, tm.VerifyCode(pastCode, enrollment.Secret))

	futureCode, err := totp.GenerateCode(enrollment.Secret, time.Now().Add(30*time.Second))
	require.NoError(t, err)
	assert.True(t, tm.VerifyCode(futureCode, enrollment.Secret))
}

func TestTOTPManager_VerifyCode_FarStep(t *testing.T) {
	tm := NewTOTPManager("Nedcloud Solutions")
	enrollment, err := tm.GenerateEnrollment("admin@nedcloud.nl")
	require.NoError(t, err)

	expiredCode, err := totp.GenerateCode(enrollment.Secret, time.Now().Add(-3*time.Minute))
	require.NoError(t, err)

	assert.False(t, tm.VerifyCode(expiredCode, enrollment.Secret))
}

func TestTOTPManager_VerifyCode_MalformedInput(t *testing.T) {
	tm := NewTOTPManager("Nedcloud Solutions")
	enrollment, err := tm.GenerateEnrollment("admin@nedcloud.nl")
	require.NoError(t, err)

	// Malformed codes and secrets fail verification, never panic or error
	assert.False(t, tm.VerifyCode("", enrollment.Secret))
	assert.False(t, tm.VerifyCode("abcdef", enrollment.Secret))
	assert.False(t, tm.VerifyCode("12345", enrollment.Secret))
	assert.False(t, tm.VerifyCode("1234567", enrollment.Secret))
	assert.False(t, tm.VerifyCode("123456", "not!base32!!"))
	assert.False(t, tm.VerifyCode("123456", ""))
}
