package compress

import (
	"fmt"
	"sort"
)

// Compress encodes and decodes whole payloads.
type Compress interface {
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

var codecs = map[string]Compress{
	"none":   NewNop(),
	"gzip":   NewGZip(),
	"brotli": NewBrotli(),
	"lz4":    NewLZ4(),
}

// ByName returns the codec registered under name.
func ByName(name string) (Compress, error) {
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown compression %q, expected one of %v", name, Names())
	}

	return c, nil
}

// Names lists the registered codecs.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
