package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStudentID(t *testing.T) {
	assert.NoError(t, ValidateStudentID("20231234"))
	assert.NoError(t, ValidateStudentID("12345"))
	assert.NoError(t, ValidateStudentID("123456789012"))

	assert.Error(t, ValidateStudentID(""))
	assert.Error(t, ValidateStudentID("1234"))
	assert.Error(t, ValidateStudentID("1234567890123"))
	assert.Error(t, ValidateStudentID("2023abcd"))
	assert.Error(t, ValidateStudentID("2023 1234"))
}

func TestValidateNickname(t *testing.T) {
	assert.NoError(t, ValidateNickname("ab"))
	assert.NoError(t, ValidateNickname("campus finder"))
	assert.NoError(t, ValidateNickname("익명의참새"))

	assert.Error(t, ValidateNickname("a"))
	assert.Error(t, ValidateNickname(" padded"))
	assert.Error(t, ValidateNickname("padded "))
	assert.Error(t, ValidateNickname("this nickname is far too long"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@campus.ac.kr"))
	assert.NoError(t, ValidateEmail("a.b+c@example.com"))

	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("plainaddress"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail("spaces in@example.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("campus1234"))
	assert.NoError(t, ValidatePassword("a1a1a1a1"))

	assert.Error(t, ValidatePassword("short1"))
	assert.Error(t, ValidatePassword("allletters"))
	assert.Error(t, ValidatePassword("12345678"))
}
