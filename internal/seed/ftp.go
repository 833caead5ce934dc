// Package seed loads a local bootstrap CSV, falling back to a mirror FTP
// host when the local copy is missing. The danger-place loader uses it;
// the AWS station list (wind.LoadStations) is read from the local file
// only, with no FTP fallback.
package seed

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
)

// LoadFile returns the contents of path if it exists locally. If it is
// absent and a fallback FTP host is configured, it retrieves
// remotePath from that host's anonymous FTP service instead.
func LoadFile(path string, ftpHost, remotePath string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	if ftpHost == "" {
		return nil, fmt.Errorf("seed file %s missing and no FTP fallback configured", path)
	}
	return fetchFTP(ftpHost, remotePath)
}

func fetchFTP(host, remotePath string) ([]byte, error) {
	conn, err := ftp.Dial(host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %w", host, err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("ftp login %s: %w", host, err)
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", remotePath, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ftp read %s: %w", remotePath, err)
	}
	return data, nil
}
