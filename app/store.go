package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"courseboard/content"
)

// dbDriver selects the placeholder style and column types. It is set from
// the configured driver before migrate runs.
var dbDriver = "sqlite3"

// rebind rewrites ? placeholders to $n for Postgres.
func rebind(query string) string {
	if dbDriver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func idColumn() string {
	if dbDriver == "pgx" {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// insertID runs an INSERT and returns the new row id.
func insertID(ctx context.Context, db *sql.DB, query string, args ...interface{}) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// notFound maps an empty result to content.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return content.ErrNotFound
	}
	return err
}

// ------------------- Schema -------------------

// migrate creates the necessary tables if they don't exist.
func migrate(db *sql.DB) error {
	id := idColumn()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id ` + id + `,
			public_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id ` + id + `,
			username TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS participations (
			id ` + id + `,
			public_id TEXT NOT NULL,
			course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
			role TEXT NOT NULL,
			UNIQUE (course_id, public_id)
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id ` + id + `,
			public_id TEXT NOT NULL,
			course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			visibility TEXT NOT NULL,
			UNIQUE (course_id, public_id)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_selected_participants (
			conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			participation_id BIGINT NOT NULL REFERENCES participations(id) ON DELETE CASCADE,
			PRIMARY KEY (conversation_id, participation_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id ` + id + `,
			public_id TEXT NOT NULL,
			conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			visibility TEXT NOT NULL,
			author_id BIGINT REFERENCES participations(id) ON DELETE SET NULL,
			created TIMESTAMP NOT NULL,
			UNIQUE (conversation_id, public_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// seedData creates a demo course owned by the seed user if no course exists.
func seedData(db *sql.DB, auth AuthConfig) error {
	ctx := context.Background()
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user, err := createUser(db, auth.Username, "Course Instructor", auth.Password)
	if err != nil {
		return err
	}
	course, err := createCourse(ctx, db, "101", "Introduction to Discussion", content.CourseActive)
	if err != nil {
		return err
	}
	instructor, err := createParticipation(ctx, db, course.ID, user.ID, "1", content.RoleInstructor)
	if err != nil {
		return err
	}
	conversation, err := createConversation(ctx, db, &content.Conversation{
		PublicID:   "1",
		CourseID:   course.ID,
		Title:      "Welcome",
		Visibility: content.VisibilityEveryone,
	})
	if err != nil {
		return err
	}
	_, err = createMessage(ctx, db, &content.Message{
		PublicID:       "1",
		ConversationID: conversation.ID,
		Visibility:     content.MessageNormal,
		AuthorID:       &instructor.ID,
		Content: "# Welcome\n\nHello @everyone! Inline math like $e^{i\\pi} + 1 = 0$ renders too.\n\n" +
			"<poll>\n\n- [ ] Mornings\n- [ ] Evenings\n\n</poll>\n",
	})
	return err
}

// ------------------- Writers -------------------

func createUser(db *sql.DB, username, name, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	created := time.Now().UTC()
	id, err := insertID(context.Background(), db,
		`INSERT INTO users (username, name, password_hash, created) VALUES (?, ?, ?, ?)`,
		username, name, string(hash), created)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Username: username, Name: name, PasswordHash: string(hash), Created: created}, nil
}

// authenticateUser returns the user when password matches.
func authenticateUser(db *sql.DB, username, password string) (*User, bool) {
	var user User
	row := db.QueryRow(rebind(`SELECT id, username, name, password_hash, created FROM users WHERE username = ?`),
		strings.TrimSpace(username))
	if err := row.Scan(&user.ID, &user.Username, &user.Name, &user.PasswordHash, &user.Created); err != nil {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, false
	}
	return &user, true
}

func createCourse(ctx context.Context, db *sql.DB, publicID, name string, state content.CourseState) (*content.Course, error) {
	id, err := insertID(ctx, db, `INSERT INTO courses (public_id, name, state) VALUES (?, ?, ?)`,
		publicID, name, string(state))
	if err != nil {
		return nil, err
	}
	return &content.Course{ID: id, PublicID: publicID, State: state}, nil
}

func createParticipation(ctx context.Context, db *sql.DB, courseID, userID int64, publicID string, role content.Role) (*content.Participation, error) {
	id, err := insertID(ctx, db, `INSERT INTO participations (public_id, course_id, user_id, role) VALUES (?, ?, ?, ?)`,
		publicID, courseID, userID, string(role))
	if err != nil {
		return nil, err
	}
	return &content.Participation{ID: id, PublicID: publicID, CourseID: courseID, UserID: userID, Role: role}, nil
}

func createConversation(ctx context.Context, db *sql.DB, c *content.Conversation) (*content.Conversation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx,
		rebind(`INSERT INTO conversations (public_id, course_id, title, visibility) VALUES (?, ?, ?, ?) RETURNING id`),
		c.PublicID, c.CourseID, c.Title, string(c.Visibility)).Scan(&id)
	if err != nil {
		return nil, err
	}
	for _, pid := range c.SelectedParticipationIDs {
		if _, err := tx.ExecContext(ctx,
			rebind(`INSERT INTO conversation_selected_participants (conversation_id, participation_id) VALUES (?, ?)`),
			id, pid); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out := *c
	out.ID = id
	return &out, nil
}

func createMessage(ctx context.Context, db *sql.DB, m *content.Message) (*content.Message, error) {
	var author sql.NullInt64
	if m.AuthorID != nil {
		author = sql.NullInt64{Int64: *m.AuthorID, Valid: true}
	}
	id, err := insertID(ctx, db,
		`INSERT INTO messages (public_id, conversation_id, content, visibility, author_id, created) VALUES (?, ?, ?, ?, ?, ?)`,
		m.PublicID, m.ConversationID, m.Content, string(m.Visibility), author, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	return &out, nil
}

// ------------------- SQLStore -------------------

// SQLStore serves content.Repository lookups from the database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

var _ content.Repository = (*SQLStore)(nil)

func (s *SQLStore) CourseByPublicID(ctx context.Context, publicID string) (*content.Course, error) {
	var c content.Course
	var state string
	row := s.db.QueryRowContext(ctx, rebind(`SELECT id, public_id, state FROM courses WHERE public_id = ?`), publicID)
	if err := row.Scan(&c.ID, &c.PublicID, &state); err != nil {
		return nil, notFound(err)
	}
	c.State = content.CourseState(state)
	return &c, nil
}

// ParticipationForUser returns the participation of userID in courseID.
func (s *SQLStore) ParticipationForUser(ctx context.Context, courseID, userID int64) (*content.Participation, error) {
	return s.scanParticipation(s.db.QueryRowContext(ctx,
		rebind(`SELECT id, public_id, course_id, user_id, role FROM participations WHERE course_id = ? AND user_id = ?`),
		courseID, userID))
}

func (s *SQLStore) CourseParticipation(ctx context.Context, courseID int64, publicID string) (*content.Participation, error) {
	return s.scanParticipation(s.db.QueryRowContext(ctx,
		rebind(`SELECT id, public_id, course_id, user_id, role FROM participations WHERE course_id = ? AND public_id = ?`),
		courseID, publicID))
}

func (s *SQLStore) scanParticipation(row *sql.Row) (*content.Participation, error) {
	var p content.Participation
	var user sql.NullInt64
	var role string
	if err := row.Scan(&p.ID, &p.PublicID, &p.CourseID, &user, &role); err != nil {
		return nil, notFound(err)
	}
	p.UserID = user.Int64
	p.Role = content.Role(role)
	return &p, nil
}

func (s *SQLStore) Conversation(ctx context.Context, courseID int64, publicID string) (*content.Conversation, error) {
	var c content.Conversation
	var visibility string
	row := s.db.QueryRowContext(ctx,
		rebind(`SELECT id, public_id, course_id, title, visibility FROM conversations WHERE course_id = ? AND public_id = ?`),
		courseID, publicID)
	if err := row.Scan(&c.ID, &c.PublicID, &c.CourseID, &c.Title, &visibility); err != nil {
		return nil, notFound(err)
	}
	c.Visibility = content.ConversationVisibility(visibility)

	rows, err := s.db.QueryContext(ctx,
		rebind(`SELECT participation_id FROM conversation_selected_participants WHERE conversation_id = ? ORDER BY participation_id`),
		c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		c.SelectedParticipationIDs = append(c.SelectedParticipationIDs, id)
	}
	return &c, rows.Err()
}

func (s *SQLStore) Message(ctx context.Context, conversationID int64, publicID string) (*content.Message, error) {
	var m content.Message
	var visibility string
	var author sql.NullInt64
	row := s.db.QueryRowContext(ctx,
		rebind(`SELECT id, public_id, conversation_id, content, visibility, author_id FROM messages WHERE conversation_id = ? AND public_id = ?`),
		conversationID, publicID)
	if err := row.Scan(&m.ID, &m.PublicID, &m.ConversationID, &m.Content, &visibility, &author); err != nil {
		return nil, notFound(err)
	}
	m.Visibility = content.MessageVisibility(visibility)
	if author.Valid {
		m.AuthorID = &author.Int64
	}
	return &m, nil
}

// UserDisplay returns ErrNotFound once the user behind the participation
// has been deleted.
func (s *SQLStore) UserDisplay(ctx context.Context, participationID int64) (content.Display, error) {
	var name string
	row := s.db.QueryRowContext(ctx,
		rebind(`SELECT u.name FROM participations p JOIN users u ON u.id = p.user_id WHERE p.id = ?`),
		participationID)
	if err := row.Scan(&name); err != nil {
		return content.Display{}, notFound(err)
	}
	return content.Display{Name: name}, nil
}
