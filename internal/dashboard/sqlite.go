// ABOUTME: SQLite-backed store for dashboard widget content using modernc.org/sqlite
// ABOUTME: Schema is created on open and fixture rows are seeded when tables are empty

package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore serves the dashboard widgets' reference content. Chat state is
// never stored here; only widget data lives in the database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the content database at the given path.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "dashboard")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.seedFixtures(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding fixtures: %w", err)
	}

	logger.Info("dashboard store initialized", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS market_prices (
			crop TEXT PRIMARY KEY,
			price REAL NOT NULL,
			change REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS government_schemes (
			name TEXT PRIMARY KEY,
			issuing_body TEXT NOT NULL,
			description TEXT NOT NULL,
			benefits TEXT NOT NULL, -- JSON array
			eligibility TEXT NOT NULL,
			link TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS advertisements (
			product_name TEXT PRIMARY KEY,
			company TEXT NOT NULL,
			description TEXT NOT NULL,
			image_prompt TEXT NOT NULL,
			call_to_action TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS forum_posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			author TEXT NOT NULL,
			title TEXT NOT NULL,
			replies INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS soil_readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ph REAL NOT NULL,
			moisture REAL NOT NULL,
			nitrogen REAL NOT NULL,
			phosphorus REAL NOT NULL,
			potassium REAL NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS water_storage (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			level_percent INTEGER NOT NULL,
			capacity_liters INTEGER NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// seedFixtures inserts the fixture rows each widget renders from, once.
func (s *SQLiteStore) seedFixtures() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM market_prices").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	prices := []MarketPrice{
		{Crop: "Ginger", Price: 7200, Change: 150},
		{Crop: "Large Cardamom", Price: 98000, Change: -1200},
		{Crop: "Maize", Price: 2100, Change: 40},
		{Crop: "Potato", Price: 1850, Change: -25},
		{Crop: "Turmeric", Price: 9600, Change: 310},
	}
	for _, p := range prices {
		if _, err := tx.Exec("INSERT INTO market_prices (crop, price, change) VALUES (?, ?, ?)",
			p.Crop, p.Price, p.Change); err != nil {
			return err
		}
	}

	schemes := []GovernmentScheme{
		{
			Name:        "Pradhan Mantri Fasal Bima Yojana",
			IssuingBody: "Central Government",
			Description: "Crop insurance against yield loss from natural calamities, pests and diseases.",
			Benefits:    []string{"Low uniform premium", "Full sum insured on total crop loss", "Quick claim settlement"},
			Eligibility: "All farmers growing notified crops in notified areas.",
			Link:        "https://pmfby.gov.in",
		},
		{
			Name:        "Himalayan Krishi Vikas Yojana",
			IssuingBody: "State Government of Sikkim",
			Description: "Support for organic farming transition in hilly terrain.",
			Benefits:    []string{"Subsidised organic inputs", "Certification cost support", "Market linkage assistance"},
			Eligibility: "Registered farmers cultivating in Sikkim.",
			Link:        "https://agri.sikkim.gov.in/himalayan-yojana",
		},
		{
			Name:        "Kisan Credit Card",
			IssuingBody: "Central Government",
			Description: "Short-term credit for cultivation and allied activities at concessional rates.",
			Benefits:    []string{"Credit up to 3 lakh at 4% effective interest", "Flexible repayment after harvest", "Personal accident cover"},
			Eligibility: "Farmers, tenant farmers and sharecroppers.",
			Link:        "https://pmkisan.gov.in/kcc",
		},
	}
	for _, sc := range schemes {
		benefits, err := json.Marshal(sc.Benefits)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO government_schemes (name, issuing_body, description, benefits, eligibility, link) VALUES (?, ?, ?, ?, ?, ?)",
			sc.Name, sc.IssuingBody, sc.Description, string(benefits), sc.Eligibility, sc.Link); err != nil {
			return err
		}
	}

	ads := []Advertisement{
		{
			Company:      "Himalayan Organics",
			ProductName:  "Giri Shakti Bio-Fertiliser",
			Description:  "Organic fertiliser blended for terraced fields. Improves soil structure and moisture retention on slopes.",
			ImagePrompt:  "A bag of organic fertiliser with mountains in the background",
			CallToAction: "Learn More",
		},
		{
			Company:      "TerraGrow Tools",
			ProductName:  "PeakPower Tiller",
			Description:  "Lightweight tiller built for narrow hill terraces. Handles steep gradients without losing grip.",
			ImagePrompt:  "A sturdy handheld tiller machine in a field",
			CallToAction: "Get a Quote",
		},
	}
	for _, a := range ads {
		if _, err := tx.Exec(
			"INSERT INTO advertisements (product_name, company, description, image_prompt, call_to_action) VALUES (?, ?, ?, ?, ?)",
			a.ProductName, a.Company, a.Description, a.ImagePrompt, a.CallToAction); err != nil {
			return err
		}
	}

	posts := []ForumPost{
		{Author: "Ramesh Singh", Title: "Best time to sow maize this year?", Replies: 12},
		{Author: "Sunita Devi", Title: "Dealing with late blight on potato", Replies: 8},
		{Author: "Vikram Choudhary", Title: "Ginger prices at Jorthang mandi", Replies: 5},
	}
	for _, p := range posts {
		if _, err := tx.Exec("INSERT INTO forum_posts (author, title, replies) VALUES (?, ?, ?)",
			p.Author, p.Title, p.Replies); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO soil_readings (ph, moisture, nitrogen, phosphorus, potassium, recorded_at) VALUES (?, ?, ?, ?, ?, ?)",
		6.4, 38.0, 41.0, 22.0, 35.0, time.Now().UTC()); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO water_storage (id, level_percent, capacity_liters) VALUES (1, ?, ?)",
		72, 5000); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("fixture content seeded")
	return nil
}

// MarketPrices returns all crop prices ordered by crop name.
func (s *SQLiteStore) MarketPrices(ctx context.Context) ([]MarketPrice, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT crop, price, change FROM market_prices ORDER BY crop")
	if err != nil {
		return nil, fmt.Errorf("querying market prices: %w", err)
	}
	defer rows.Close()

	var out []MarketPrice
	for rows.Next() {
		var p MarketPrice
		if err := rows.Scan(&p.Crop, &p.Price, &p.Change); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Schemes returns all government schemes.
func (s *SQLiteStore) Schemes(ctx context.Context) ([]GovernmentScheme, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, issuing_body, description, benefits, eligibility, link FROM government_schemes ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying schemes: %w", err)
	}
	defer rows.Close()

	var out []GovernmentScheme
	for rows.Next() {
		var sc GovernmentScheme
		var benefits string
		if err := rows.Scan(&sc.Name, &sc.IssuingBody, &sc.Description, &benefits, &sc.Eligibility, &sc.Link); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(benefits), &sc.Benefits); err != nil {
			return nil, fmt.Errorf("decoding benefits for %s: %w", sc.Name, err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Advertisements returns all sponsored product cards.
func (s *SQLiteStore) Advertisements(ctx context.Context) ([]Advertisement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_name, company, description, image_prompt, call_to_action FROM advertisements ORDER BY product_name")
	if err != nil {
		return nil, fmt.Errorf("querying advertisements: %w", err)
	}
	defer rows.Close()

	var out []Advertisement
	for rows.Next() {
		var a Advertisement
		if err := rows.Scan(&a.ProductName, &a.Company, &a.Description, &a.ImagePrompt, &a.CallToAction); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ForumPosts returns the most recent forum teasers, newest first.
func (s *SQLiteStore) ForumPosts(ctx context.Context, limit int) ([]ForumPost, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, author, title, replies FROM forum_posts ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying forum posts: %w", err)
	}
	defer rows.Close()

	var out []ForumPost
	for rows.Next() {
		var p ForumPost
		if err := rows.Scan(&p.ID, &p.Author, &p.Title, &p.Replies); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestSoilReading returns the most recent soil sample.
func (s *SQLiteStore) LatestSoilReading(ctx context.Context) (*SoilReading, error) {
	var r SoilReading
	err := s.db.QueryRowContext(ctx,
		"SELECT ph, moisture, nitrogen, phosphorus, potassium, recorded_at FROM soil_readings ORDER BY id DESC LIMIT 1").
		Scan(&r.PH, &r.Moisture, &r.Nitrogen, &r.Phosphorus, &r.Potassium, &r.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("querying soil reading: %w", err)
	}
	return &r, nil
}

// WaterStorage returns the current tank state.
func (s *SQLiteStore) WaterStorage(ctx context.Context) (*WaterStorage, error) {
	var w WaterStorage
	err := s.db.QueryRowContext(ctx,
		"SELECT level_percent, capacity_liters FROM water_storage WHERE id = 1").
		Scan(&w.LevelPercent, &w.CapacityLiters)
	if err != nil {
		return nil, fmt.Errorf("querying water storage: %w", err)
	}
	return &w, nil
}
