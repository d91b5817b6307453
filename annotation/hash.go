package annotation

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v6"
)

// HashFile returns the hex SHA-256 of a file
func HashFile(fs billy.Filesystem, filepath string) (string, error) {
	f, err := fs.Open(filepath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	_, err = io.Copy(hasher, f)
	if err != nil {
		return "", err
	}
	hash := fmt.Sprintf("%x", hasher.Sum(nil))
	return hash, nil
}
