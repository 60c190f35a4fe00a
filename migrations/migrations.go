package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

type User struct {
	ID        int       `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var db *sql.DB

// Init sets the DB connection for migrations and queries
func Init(database *sql.DB) {
	db = database
}

// DB exposes the shared connection to repositories constructed in main.
func DB() *sql.DB {
	return db
}

// Migrate creates required tables if they do not exist
func Migrate() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	createUsers := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(191) NOT NULL UNIQUE,
		password VARCHAR(191) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'admin',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createUsers); err != nil {
		return err
	}

	createMembers := `
	CREATE TABLE IF NOT EXISTS family_members (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		name VARCHAR(150) NOT NULL,
		date_of_birth DATE NULL,
		gender VARCHAR(20) NOT NULL DEFAULT 'Other',
		relationship VARCHAR(50) NOT NULL DEFAULT '',
		existing_conditions TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createMembers); err != nil {
		return err
	}

	createReports := `
	CREATE TABLE IF NOT EXISTS lab_reports (
		id INT AUTO_INCREMENT PRIMARY KEY,
		member_id INT NOT NULL,
		file_name VARCHAR(255) NOT NULL,
		report_date DATE NOT NULL,
		marker_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (member_id) REFERENCES family_members(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createReports); err != nil {
		return err
	}

	// Observations are immutable once written. ref_min/ref_max/abnormal are a
	// snapshot taken at extraction time; readers recompute abnormality from
	// the live range table.
	createObservations := `
	CREATE TABLE IF NOT EXISTS lab_observations (
		id INT AUTO_INCREMENT PRIMARY KEY,
		report_id INT NOT NULL,
		member_id INT NOT NULL,
		marker VARCHAR(150) NOT NULL,
		value DOUBLE NOT NULL,
		unit VARCHAR(50) NOT NULL DEFAULT '',
		observed_at DATE NOT NULL,
		ref_min DOUBLE NULL,
		ref_max DOUBLE NULL,
		ref_unit VARCHAR(50) NOT NULL DEFAULT '',
		abnormal TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_member_date (member_id, observed_at),
		FOREIGN KEY (report_id) REFERENCES lab_reports(id) ON DELETE CASCADE,
		FOREIGN KEY (member_id) REFERENCES family_members(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createObservations); err != nil {
		return err
	}

	// position gives each turn a stable slot per (member, admin) pair so
	// concurrent appends can detect a lost-update race.
	createChat := `
	CREATE TABLE IF NOT EXISTS chat_messages (
		id INT AUTO_INCREMENT PRIMARY KEY,
		member_id INT NOT NULL,
		user_id INT NOT NULL,
		position INT NOT NULL,
		role VARCHAR(20) NOT NULL,
		content TEXT NOT NULL,
		source_count INT NOT NULL DEFAULT 0,
		confidence VARCHAR(20) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_conv_position (member_id, user_id, position),
		FOREIGN KEY (member_id) REFERENCES family_members(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createChat); err != nil {
		return err
	}

	// Subscriptions related tables
	createPlans := `
	CREATE TABLE IF NOT EXISTS subscription_plans (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		currency VARCHAR(10) NOT NULL DEFAULT 'USD',
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		billing VARCHAR(50) NOT NULL DEFAULT 'Monthly',
		consultations INT NOT NULL DEFAULT 0,
		reports INT NOT NULL DEFAULT 0,
		members INT NOT NULL DEFAULT 0,
		stripe_product_id VARCHAR(100) NOT NULL DEFAULT '',
		stripe_price_id VARCHAR(100) NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createPlans); err != nil {
		return err
	}
	createSubs := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		plan_id INT NOT NULL,
		start_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		end_date DATETIME NULL,
		consultations INT NOT NULL DEFAULT 0,
		reports INT NOT NULL DEFAULT 0,
		members INT NOT NULL DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (plan_id) REFERENCES subscription_plans(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createSubs); err != nil {
		return err
	}
	return nil
}

// SeedDefaultPlans inserts default plans if none exist
func SeedDefaultPlans() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM subscription_plans").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		// Free plan
		if _, err := db.Exec(`INSERT INTO subscription_plans (name, currency, price, billing, consultations, reports, members) VALUES ('Free','USD',0.00,'Monthly',10,3,4)`); err != nil {
			return err
		}
		// Family plan
		if _, err := db.Exec(`INSERT INTO subscription_plans (name, currency, price, billing, consultations, reports, members) VALUES ('Family','USD',6.99,'Monthly',100,30,10)`); err != nil {
			return err
		}
		// Family Plus plan
		if _, err := db.Exec(`INSERT INTO subscription_plans (name, currency, price, billing, consultations, reports, members) VALUES ('Family Plus','USD',12.99,'Monthly',400,100,20)`); err != nil {
			return err
		}
	}
	return nil
}

// GetUserByEmail retrieves a user from DB by email
func GetUserByEmail(email string) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT id, first_name, last_name, email, password, role, created_at, updated_at FROM users WHERE email = ? LIMIT 1", email)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil
	}
	return &u
}

// GetUserByID retrieves a user by its ID
func GetUserByID(id int) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT id, first_name, last_name, email, password, role, created_at, updated_at FROM users WHERE id = ? LIMIT 1", id)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil
	}
	return &u
}

// UpdateUserPassword updates the password for the given user id
func UpdateUserPassword(id int, password string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec("UPDATE users SET password = ?, updated_at = NOW() WHERE id = ?", password, id)
	return err
}

// CreateUser inserts a new user record
func CreateUser(firstName, lastName, email, password, role string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec(
		"INSERT INTO users (first_name, last_name, email, password, role) VALUES (?, ?, ?, ?, ?)",
		firstName, lastName, email, password, role,
	)
	return err
}

// EmailExists checks if a user with the given email exists
func EmailExists(email string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureFreeSubscriptionForUser creates a Free subscription for the user if none exists
func EnsureFreeSubscriptionForUser(userID int) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM subscriptions WHERE user_id = ?", userID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	var planID, consultations, reports, members int
	row := db.QueryRow("SELECT id, consultations, reports, members FROM subscription_plans WHERE name = 'Free' LIMIT 1")
	switch err := row.Scan(&planID, &consultations, &reports, &members); err {
	case nil:
		// ok
	case sql.ErrNoRows:
		// Fallback to the cheapest plan
		row2 := db.QueryRow("SELECT id, consultations, reports, members FROM subscription_plans ORDER BY price ASC, id ASC LIMIT 1")
		if err2 := row2.Scan(&planID, &consultations, &reports, &members); err2 != nil {
			return err2
		}
	default:
		return err
	}
	_, err := db.Exec(`INSERT INTO subscriptions (user_id, plan_id, start_date, consultations, reports, members)
		VALUES (?,?, NOW(), ?, ?, ?)`, userID, planID, consultations, reports, members)
	return err
}
