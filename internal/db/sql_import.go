package db

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quillcms/internal/models"
)

// ImportTree copies a JSON document tree (the layout read by NewJSON) into
// the SQL tables in a single transaction. Running it again with the same tree
// leaves the tables unchanged: entries are matched on kind, slug and
// language, menus are replaced per language present in the tree, and the
// plugin list is replaced when the tree declares one.
func ImportTree(gdb *gorm.DB, data map[string]any) error {
	source, err := NewJSON(data)
	if err != nil {
		return err
	}
	content := source.siteContent()

	return gdb.Transaction(func(tx *gorm.DB) error {
		for _, kind := range []string{kindPost, kindPage} {
			entries, err := source.decodeAll(kind + "s")
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := importEntry(tx, kind, entry); err != nil {
					return err
				}
			}
		}

		menus, _ := content["menu_items"].(map[string]any)
		for lang := range menus {
			items, err := source.GetMenuItems(lang)
			if err != nil {
				return err
			}
			if err := tx.Unscoped().Where("language = ?", lang).Delete(&MenuItemRecord{}).Error; err != nil {
				return err
			}
			for i, item := range items {
				record := MenuItemRecord{Language: lang, Name: item.Name, URL: item.URL, Position: i}
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
			}
		}

		settings := make([]SettingRecord, 0, 8)
		for _, key := range []string{"logo_url", "favicon_url", "font"} {
			if value, ok := content[key].(string); ok {
				settings = append(settings, SettingRecord{Key: key, Value: value})
			}
		}
		for key, fallback := range map[string]models.Color{
			"primary_color":   models.DefaultPrimaryColor,
			"secondary_color": models.DefaultSecondaryColor,
		} {
			if _, ok := content[key]; !ok {
				continue
			}
			color, err := source.colorSetting(key, fallback)
			if err != nil {
				return err
			}
			settings = append(settings, SettingRecord{Key: key, Value: color.Hex()})
		}
		descriptions, _ := content["app_description"].(map[string]any)
		for lang, value := range descriptions {
			if text, ok := value.(string); ok {
				settings = append(settings, SettingRecord{Key: "app_description." + lang, Value: text})
			}
		}
		if len(settings) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&settings).Error; err != nil {
				return err
			}
		}

		if _, declared := data["plugins"]; !declared {
			return nil
		}
		decls, err := source.GetPluginsData()
		if err != nil {
			return err
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&PluginRecord{}).Error; err != nil {
			return err
		}
		for i, decl := range decls {
			encoded, err := json.Marshal(decl.Config)
			if err != nil {
				return fmt.Errorf("plugin %q config: %w", decl.Name, err)
			}
			record := PluginRecord{Position: i, Name: decl.Name, Config: string(encoded)}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// importEntry inserts entry or refreshes the row already stored for its
// kind, slug and language. Stored comments are kept; comments from the tree
// are added unless an identical one exists.
func importEntry(tx *gorm.DB, kind string, entry models.Post) error {
	var record EntryRecord
	err := tx.Preload("Comments").
		Where("kind = ? AND slug = ? AND language = ?", kind, entry.Slug, entry.Language).
		Limit(1).Find(&record).Error
	if err != nil {
		return fmt.Errorf("import %s %q: %w", kind, entry.Slug, err)
	}
	existing := record.ID != 0

	record.Kind = kind
	record.Slug = entry.Slug
	record.Language = entry.Language
	record.Title = entry.Title
	record.Author = entry.Author
	record.Content = entry.ContentInMarkdown
	record.Excerpt = entry.Excerpt
	record.CoverURL = entry.CoverImage.URL
	record.CoverAlt = entry.CoverImage.AlternateText
	record.Date = entry.Date

	tags := make([]TagRecord, 0, len(entry.Tags))
	for _, name := range entry.Tags {
		var tag TagRecord
		if err := tx.Where(TagRecord{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
		tags = append(tags, tag)
	}

	var fresh []CommentRecord
	for _, c := range entry.Comments {
		comment := CommentRecord{Author: c.Author, Body: c.Comment, Date: c.Date}
		if existing && hasComment(record.Comments, comment) {
			continue
		}
		fresh = append(fresh, comment)
	}

	if !existing {
		record.Tags = tags
		record.Comments = fresh
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("import %s %q: %w", kind, entry.Slug, err)
		}
		return nil
	}

	record.Tags = nil
	record.Comments = nil
	if err := tx.Omit(clause.Associations).Save(&record).Error; err != nil {
		return fmt.Errorf("import %s %q: %w", kind, entry.Slug, err)
	}
	if err := tx.Model(&record).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("import %s %q tags: %w", kind, entry.Slug, err)
	}
	for i := range fresh {
		fresh[i].EntryID = record.ID
	}
	if len(fresh) > 0 {
		if err := tx.Create(&fresh).Error; err != nil {
			return fmt.Errorf("import %s %q comments: %w", kind, entry.Slug, err)
		}
	}
	return nil
}

func hasComment(stored []CommentRecord, c CommentRecord) bool {
	for _, s := range stored {
		if s.Author == c.Author && s.Body == c.Body && s.Date == c.Date {
			return true
		}
	}
	return false
}
