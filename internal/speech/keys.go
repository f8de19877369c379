package speech

import (
	"strings"

	"github.com/google/uuid"
)

const audioExtension = ".mp3"

// KeyGenerator returns a fresh object key on every call.
type KeyGenerator func() string

// NewKeyGenerator returns a generator of "[prefix/]<uuid>.mp3" keys. Leading
// and trailing slashes on the prefix are ignored.
func NewKeyGenerator(prefix string) KeyGenerator {
	prefix = strings.Trim(prefix, "/")

	return func() string {
		if prefix == "" {
			return uuid.NewString() + audioExtension
		}

		return prefix + "/" + uuid.NewString() + audioExtension
	}
}
