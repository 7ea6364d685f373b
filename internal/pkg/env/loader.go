package env

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Files lists the env files loaded by LoadDotEnv, the most specific first.
// https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
func Files() []string {
	return []string{
		".env.local",
		".env",
	}
}

// LoadDotEnv loads envs from env files in the dir, if they exist.
// Existing envs take precedence.
func LoadDotEnv(osEnvs *Map, dir string) (*Map, error) {
	envs := FromMap(osEnvs.ToMap()) // copy

	for _, file := range Files() {
		path := filepath.Join(dir, file)
		info, err := os.Stat(path)
		switch {
		case err != nil && os.IsNotExist(err):
			continue
		case err != nil:
			return nil, err
		case info.IsDir():
			continue
		}

		fileEnvs, err := godotenv.Read(path)
		if err != nil {
			return nil, err
		}

		for k, v := range fileEnvs {
			if _, found := envs.Lookup(k); !found {
				envs.Set(k, v)
			}
		}
	}

	return envs, nil
}
