package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/domain"
)

// maxRequestBody caps JSON request bodies at 1MB. The API carries small
// documents only.
const maxRequestBody = 1 << 20

// decodeJSON reads and decodes a JSON request body into dst.
// Returns a domain.EINVALID error for malformed input.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return domain.Wrap(err, domain.EINVALID, "", "Request body is not valid JSON")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// pathUUID extracts a UUID path parameter from the request.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.Invalid("", fmt.Sprintf("Invalid %s in path", name))
	}
	return id, nil
}
