package keywords

import (
	_ "embed"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// The bundled list targets Indonesian, the language of the catalog this
// service was built for. A different list can be supplied via configuration.
//
//go:embed stopwords_id.txt
var stopWordsID string

// DefaultStopWords returns the bundled Indonesian stop-word list.
func DefaultStopWords() []string {
	return parseStopWords(stopWordsID)
}

// LoadStopWords reads a stop-word list from a file, one word per line. Blank
// lines and lines starting with # are skipped.
func LoadStopWords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read stop words file: %s", path)
	}
	return parseStopWords(string(data)), nil
}

func parseStopWords(data string) []string {
	var words []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, strings.ToLower(line))
	}
	return words
}
