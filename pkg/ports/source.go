package ports

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// Source is a named tabular byte source.
// Name is the identifying label used for diagnostics and net name extraction.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// InputFiles maps each input role to its source.
// Nil fields mean the role was not supplied.
type InputFiles struct {
	Operations           Source
	InternalRelations    Source
	ExternalPredecessors Source
	ExternalSuccessors   Source
	OperatorInstructions Source // optional
	Additional           []Source
}

// Missing returns the required roles without a source, in canonical order.
func (f InputFiles) Missing() []domain.Role {
	var missing []domain.Role
	for _, role := range domain.RequiredRoles {
		if f.Get(role) == nil {
			missing = append(missing, role)
		}
	}
	return missing
}

// Get returns the source assigned to a primary role.
func (f InputFiles) Get(role domain.Role) Source {
	switch role {
	case domain.RoleOperations:
		return f.Operations
	case domain.RoleInternalRelations:
		return f.InternalRelations
	case domain.RoleExternalPredecessors:
		return f.ExternalPredecessors
	case domain.RoleExternalSuccessors:
		return f.ExternalSuccessors
	case domain.RoleOperatorInstructions:
		return f.OperatorInstructions
	}
	return nil
}

// Set assigns src to role. RoleAdditional appends.
func (f *InputFiles) Set(role domain.Role, src Source) {
	switch role {
	case domain.RoleOperations:
		f.Operations = src
	case domain.RoleInternalRelations:
		f.InternalRelations = src
	case domain.RoleExternalPredecessors:
		f.ExternalPredecessors = src
	case domain.RoleExternalSuccessors:
		f.ExternalSuccessors = src
	case domain.RoleOperatorInstructions:
		f.OperatorInstructions = src
	case domain.RoleAdditional:
		f.Additional = append(f.Additional, src)
	}
}

// FileSource reads a file from disk. Its name is the base name of the path.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string                 { return filepath.Base(s.Path) }
func (s FileSource) Open() (io.ReadCloser, error) { return os.Open(s.Path) }

// BytesSource serves an in-memory payload, e.g. an uploaded multipart file.
type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Name() string { return s.Label }
func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}
