package httpweb

import (
	"io"
	"os"
)

// copyFileInto streams path's contents into w, used by handleMultiZip to
// write each requested media item straight into the in-flight zip stream.
func copyFileInto(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
