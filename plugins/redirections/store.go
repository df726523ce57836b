package redirections

import (
	"fmt"

	"github.com/quillcms/internal/db"
)

// Record is the SQL row of one stored redirect.
type Record struct {
	ID          uint   `gorm:"primaryKey"`
	Source      string `gorm:"uniqueIndex;size:191;not null"`
	Destination string `gorm:"not null"`
}

func (Record) TableName() string { return "redirections" }

const graphQLQuery = `query Redirections {
  redirections(stage: PUBLISHED) { source destination }
}`

// getRedirections reads redirects from whichever backend it is bound to.
func getRedirections(self db.Repository, _ ...any) (any, error) {
	switch repo := self.(type) {
	case *db.JSONFile:
		return fromTree(repo.Data)
	case *db.JSON:
		return fromTree(repo.Data)
	case *db.GraphQL:
		var data struct {
			Redirections []struct {
				Source      string `json:"source"`
				Destination string `json:"destination"`
			} `json:"redirections"`
		}
		if err := repo.Client.Execute(graphQLQuery, nil, &data); err != nil {
			return nil, err
		}
		out := make(map[string]string, len(data.Redirections))
		for _, r := range data.Redirections {
			out[r.Source] = r.Destination
		}
		return out, nil
	case *db.SQL:
		if err := repo.DB.AutoMigrate(&Record{}); err != nil {
			return nil, fmt.Errorf("migrate redirections: %w", err)
		}
		var records []Record
		if err := repo.DB.Find(&records).Error; err != nil {
			return nil, err
		}
		out := make(map[string]string, len(records))
		for _, r := range records {
			out[r.Source] = r.Destination
		}
		return out, nil
	default:
		return map[string]string{}, nil
	}
}

func fromTree(data map[string]any) (map[string]string, error) {
	raw, _ := data["redirections"].(map[string]any)
	out := make(map[string]string, len(raw))
	for source, value := range raw {
		destination, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("stored redirection %q: destination must be a string, got %T", source, value)
		}
		out[source] = destination
	}
	return out, nil
}
