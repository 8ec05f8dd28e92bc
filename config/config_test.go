package config

import (
	"errors"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	os.Setenv("ADMIN_EMAILS", "lead@aerogenv.club, ops@aerogenv.club")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, []string{"lead@aerogenv.club", "ops@aerogenv.club"}, conf.AdminEmails)
	assert.True(t, conf.IsAdmin("Lead@aerogenv.club"))
	assert.False(t, conf.IsAdmin("member@aerogenv.club"))
}

func TestErrorStatus(t *testing.T) {

	ErrorStatus("error it borked", 400, httptest.NewRecorder(), errors.New("bad request"))
	assert.True(t, true)
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}
