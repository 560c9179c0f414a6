package env

import (
	"os"

	"github.com/joho/godotenv"
)

// Candidate .env locations, relative to the working directory.
var envFiles = []string{
	".env",          // Current directory
	"../../.env",    // From cmd/postify to project root
	"../../../.env", // Fallback for deeper nesting
}

func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file it finds into the process
// environment. Variables already set in the environment win, so Docker and
// CI configuration is never overridden by a stray file. An explicit path
// takes precedence over the candidate list. A missing file is not an error:
// required settings are checked by the config package.
func SetupEnvFile(explicit string) (string, error) {
	if explicit != "" {
		if err := godotenv.Load(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return "", err
		}
		return envFile, nil
	}

	return "", nil
}
