package util

import (
	"os"
	"strings"
)

// EnvironmentPrefix scopes every configuration variable the application
// reads.
const EnvironmentPrefix = "SCHEDULER_"

// GetEnvironmentVariables returns the process environment filtered down to
// the application's own variables.
func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)
		if !strings.HasPrefix(pair[0], EnvironmentPrefix) {
			continue
		}

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}
