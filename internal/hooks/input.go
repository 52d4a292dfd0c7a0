package hooks

import (
	"encoding/json"
	"io"

	"github.com/dotcommander/memhook/internal/models"
)

// maxInputBytes caps stdin reads. Hook payloads are small JSON objects.
const maxInputBytes = 1 << 20

// ReadInput decodes the host payload. Missing or malformed input yields the
// zero value so every field degrades to "".
func ReadInput(r io.Reader) models.HookInput {
	var in models.HookInput
	if r == nil {
		return in
	}
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil || len(data) == 0 {
		return in
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return models.HookInput{}
	}
	return in
}
