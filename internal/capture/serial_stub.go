//go:build !linux

package capture

import (
	"fmt"
	"os"
)

func openSerial(path string, baud int) (*os.File, error) {
	return nil, fmt.Errorf("serial capture not supported on this platform")
}
