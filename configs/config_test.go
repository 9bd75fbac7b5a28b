package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEmailConf(t *testing.T) {
	full := &Config{
		EmailHost:        "smtp.example.com",
		EmailPort:        587,
		EmailUsername:    "notifier",
		EmailPassword:    "secret",
		EmailEncryption:  "starttls",
		EmailFromAddress: "noreply@example.com",
		EmailFromName:    "CargoLink",
	}

	ec := GetEmailConf(full)
	assert.Equal(t, "smtp.example.com", ec.Host)
	assert.Equal(t, 587, ec.Port)
	assert.Equal(t, "notifier", ec.Username)
	assert.Equal(t, "secret", ec.Password)
	assert.Equal(t, "starttls", ec.Encryption)
	assert.Equal(t, "noreply@example.com", ec.FromAddress)
	assert.Equal(t, "CargoLink", ec.FromName)
}

func TestGetEmailConf_NilConfig(t *testing.T) {
	ec := GetEmailConf(nil)
	assert.Equal(t, &EmailConf{}, ec)
}
