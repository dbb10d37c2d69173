package logging

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var sensitiveKeys = map[string]struct{}{
	"token":         {},
	"github_token":  {},
	"gh_token":      {},
	"authorization": {},
	"password":      {},
	"secret":        {},
	"api_key":       {},
	"apikey":        {},
	"access_key":    {},
	"private_key":   {},
	"client_secret": {},
	"refresh_token": {},
}

// RedactHook masks the values of credential-like fields on every entry.
type RedactHook struct{}

// Levels implements logrus.Hook.
func (h *RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *RedactHook) Fire(entry *logrus.Entry) error {
	for key, value := range entry.Data {
		if _, ok := sensitiveKeys[strings.ToLower(key)]; ok {
			entry.Data[key] = Redact(fmt.Sprint(value))
		}
	}
	return nil
}

// Redact masks a value, keeping only a four character prefix of long values
// so token types such as ghp_ stay recognisable.
func Redact(s string) string {
	if s == "" {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***"
}
