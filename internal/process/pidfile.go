package process

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/loykin/stackup/internal/detector"
)

// PIDMeta is the JSON line written after the PID. StartUnix is the
// kernel-reported process start time; a mismatch on read means the PID
// was recycled by an unrelated process.
type PIDMeta struct {
	StartUnix int64 `json:"start_unix"`
}

// WritePIDFile records pid and its start-time metadata at path.
// A missing path is not an error; ownership is then store-only.
func WritePIDFile(path string, pid int) error {
	if path == "" || pid <= 0 {
		return nil
	}
	ensureDir(path)
	meta := PIDMeta{StartUnix: detector.ProcStartUnix(pid)}
	mb, _ := json.Marshal(meta)
	content := strconv.Itoa(pid) + "\n" + string(mb) + "\n"
	return os.WriteFile(path, []byte(content), 0o600)
}

// ReadPIDFile reads a pidfile written by WritePIDFile. For legacy
// files that contain only the PID, meta will be nil.
func ReadPIDFile(path string) (int, *PIDMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	pidLine, rest, _ := strings.Cut(string(b), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(pidLine))
	if err != nil {
		return 0, nil, err
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return pid, nil, nil
	}
	var meta PIDMeta
	if err := json.Unmarshal([]byte(rest), &meta); err != nil {
		// Return PID even if meta cannot be parsed
		return pid, nil, nil
	}
	return pid, &meta, nil
}
