// Package params reads the ids of the content tree from the route.
package params

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/service/access"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UUID parses the route parameter name. A missing parameter yields uuid.Nil.
func UUID(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, app_errors.NewValidationError(name, "must be a UUID")
	}
	return id, nil
}

// Path collects every tree id present in the route.
func Path(c *gin.Context) (access.Path, error) {
	var p access.Path
	for _, f := range []struct {
		name string
		dst  *uuid.UUID
	}{
		{"subject_id", &p.SubjectID},
		{"chapter_id", &p.ChapterID},
		{"paragraph_id", &p.ParagraphID},
		{"assignment_id", &p.AssignmentID},
		{"block_id", &p.BlockID},
	} {
		id, err := UUID(c, f.name)
		if err != nil {
			return access.Path{}, err
		}
		*f.dst = id
	}
	return p, nil
}
