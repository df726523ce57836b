package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quillcms/internal/models"
)

const (
	kindPost = "post"
	kindPage = "page"
)

// EntryRecord stores posts and pages in one table, told apart by Kind.
type EntryRecord struct {
	gorm.Model
	Kind     string `gorm:"index;not null"`
	Slug     string `gorm:"index;not null"`
	Language string `gorm:"index;not null"`
	Title    string `gorm:"not null"`
	Author   string
	Content  string `gorm:"type:text"`
	Excerpt  string
	CoverURL string
	CoverAlt string
	Date     string          `gorm:"index"`
	Tags     []TagRecord     `gorm:"many2many:entry_tags;"`
	Comments []CommentRecord `gorm:"foreignKey:EntryID"`
}

func (EntryRecord) TableName() string { return "entries" }

// TagRecord is a tag shared by entries.
type TagRecord struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;size:191;not null"`
}

func (TagRecord) TableName() string { return "tags" }

// CommentRecord belongs to one entry and is never updated.
type CommentRecord struct {
	gorm.Model
	EntryID uint   `gorm:"index;not null"`
	Author  string `gorm:"not null"`
	Body    string `gorm:"type:text"`
	Date    string
}

func (CommentRecord) TableName() string { return "comments" }

// MenuItemRecord is a navigation entry for one language.
type MenuItemRecord struct {
	gorm.Model
	Language string `gorm:"index;not null"`
	Name     string `gorm:"not null"`
	URL      string
	Position int
}

func (MenuItemRecord) TableName() string { return "menu_items" }

// SettingRecord holds theming values such as "logo_url" or "primary_color".
// Descriptions are stored per language as "app_description.<lang>".
type SettingRecord struct {
	Key   string `gorm:"primaryKey;size:191"`
	Value string `gorm:"type:text"`
}

func (SettingRecord) TableName() string { return "settings" }

// PluginRecord is a plugin declaration; Config holds a JSON object.
type PluginRecord struct {
	gorm.Model
	Position int
	Name     string `gorm:"not null"`
	Config   string `gorm:"type:text"`
}

func (PluginRecord) TableName() string { return "plugins" }

// SQL serves content from a relational database through gorm.
type SQL struct {
	DB *gorm.DB

	mu  sync.Mutex
	ext extensionSet
}

// OpenSQL opens dsn with driver ("sqlite" or "mysql") and migrates the schema.
func OpenSQL(driver, dsn string) (*SQL, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: sql database needs a dsn", ErrInvalidArgument)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		if err := ensureParentDir(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: sql driver %q", ErrUnknownBackend, driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sql database: %w", err)
	}
	return NewSQL(gdb)
}

// NewSQL wraps an open connection and migrates the schema.
func NewSQL(gdb *gorm.DB) (*SQL, error) {
	if gdb == nil {
		return nil, fmt.Errorf("%w: nil gorm connection", ErrInvalidArgument)
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return &SQL{DB: gdb}, nil
}

// Migrate creates or updates the content tables.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&EntryRecord{},
		&TagRecord{},
		&CommentRecord{},
		&MenuItemRecord{},
		&SettingRecord{},
		&PluginRecord{},
	); err != nil {
		return fmt.Errorf("migrate sql database: %w", err)
	}
	return nil
}

func (s *SQL) Name() string { return "sql_db" }

// Close releases the connection pool. Use db.Close to close any backend.
func (s *SQL) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQL) entries() *gorm.DB {
	return s.DB.Model(&EntryRecord{}).
		Preload("Tags").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") })
}

func (s *SQL) findEntry(kind, slug string) (models.Post, error) {
	var records []EntryRecord
	if err := s.entries().Where("kind = ? AND slug = ?", kind, slug).Find(&records).Error; err != nil {
		return models.Post{}, err
	}
	switch len(records) {
	case 0:
		return models.Post{}, fmt.Errorf("%w: %s %q", ErrNotFound, kind, slug)
	case 1:
		return records[0].toPost(), nil
	default:
		return models.Post{}, fmt.Errorf("%w: %q in %ss", ErrDuplicateSlug, slug, kind)
	}
}

func (s *SQL) GetAllPosts(lang string) ([]models.Post, error) {
	var records []EntryRecord
	if err := s.entries().
		Where("kind = ? AND language = ?", kindPost, lang).
		Order("date DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(records))
	for _, r := range records {
		posts = append(posts, r.toPost())
	}
	return posts, nil
}

func (s *SQL) GetPost(slug string) (models.Post, error) {
	return s.findEntry(kindPost, slug)
}

func (s *SQL) GetPage(slug string) (models.Page, error) {
	return s.findEntry(kindPage, slug)
}

func (s *SQL) GetPostsByTag(tag, lang string) ([]models.Post, error) {
	posts, err := s.GetAllPosts(lang)
	if err != nil {
		return nil, err
	}
	return filterByTag(posts, tag), nil
}

func (s *SQL) AddComment(author, comment, postSlug string) error {
	if err := validateComment(author, comment, postSlug); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uint
	if err := s.DB.Model(&EntryRecord{}).
		Where("kind = ? AND slug = ?", kindPost, postSlug).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	switch len(ids) {
	case 0:
		return fmt.Errorf("%w: post %q", ErrNotFound, postSlug)
	case 1:
	default:
		return fmt.Errorf("%w: %q in posts", ErrDuplicateSlug, postSlug)
	}

	return s.DB.Create(&CommentRecord{
		EntryID: ids[0],
		Author:  author,
		Body:    comment,
		Date:    commentNow(),
	}).Error
}

func (s *SQL) GetMenuItems(lang string) ([]models.MenuItem, error) {
	var records []MenuItemRecord
	if err := s.DB.Where("language = ?", lang).Order("position, id").Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]models.MenuItem, 0, len(records))
	for _, r := range records {
		items = append(items, models.MenuItem{Name: r.Name, URL: r.URL})
	}
	return items, nil
}

func (s *SQL) setting(key string) (string, bool, error) {
	var record SettingRecord
	err := s.DB.Where(&SettingRecord{Key: key}).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return record.Value, true, nil
}

func (s *SQL) stringSetting(key string) (string, error) {
	value, _, err := s.setting(key)
	return value, err
}

func (s *SQL) GetAppDescription(lang string) (string, error) {
	return s.stringSetting("app_description." + lang)
}

func (s *SQL) GetLogoURL() (string, error)    { return s.stringSetting("logo_url") }
func (s *SQL) GetFaviconURL() (string, error) { return s.stringSetting("favicon_url") }
func (s *SQL) GetFont() (string, error)       { return s.stringSetting("font") }

func (s *SQL) colorSetting(key string, fallback models.Color) (models.Color, error) {
	value, ok, err := s.setting(key)
	if err != nil {
		return models.Color{}, err
	}
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	color, err := models.ParseColor(value)
	if err != nil {
		return models.Color{}, fmt.Errorf("%s: %w", key, err)
	}
	return color, nil
}

func (s *SQL) GetPrimaryColor() (models.Color, error) {
	return s.colorSetting("primary_color", models.DefaultPrimaryColor)
}

func (s *SQL) GetSecondaryColor() (models.Color, error) {
	return s.colorSetting("secondary_color", models.DefaultSecondaryColor)
}

func (s *SQL) GetPluginsData() ([]models.PluginDeclaration, error) {
	var records []PluginRecord
	if err := s.DB.Order("position, id").Find(&records).Error; err != nil {
		return nil, err
	}
	decls := make([]models.PluginDeclaration, 0, len(records))
	for _, r := range records {
		decl := models.PluginDeclaration{Name: r.Name}
		if strings.TrimSpace(r.Config) != "" {
			if err := json.Unmarshal([]byte(r.Config), &decl.Config); err != nil {
				return nil, fmt.Errorf("plugin %q config: %w", r.Name, err)
			}
		}
		if err := models.Validate(decl); err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func (s *SQL) Extend(name string, fn any) error {
	return s.ext.extend(name, fn)
}

func (s *SQL) Invoke(name string, args ...any) (any, error) {
	return s.ext.invoke(s, name, args)
}

func (r EntryRecord) toPost() models.Post {
	post := models.Post{
		Author:            r.Author,
		Slug:              r.Slug,
		Title:             r.Title,
		ContentInMarkdown: r.Content,
		Excerpt:           r.Excerpt,
		Language:          r.Language,
		CoverImage:        models.Image{URL: r.CoverURL, AlternateText: r.CoverAlt},
		Date:              r.Date,
		Tags:              make([]string, 0, len(r.Tags)),
		Comments:          make([]models.Comment, 0, len(r.Comments)),
	}
	for _, t := range r.Tags {
		post.Tags = append(post.Tags, t.Name)
	}
	for _, c := range r.Comments {
		post.Comments = append(post.Comments, models.Comment{Author: c.Author, Comment: c.Body, Date: c.Date})
	}
	return post
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
