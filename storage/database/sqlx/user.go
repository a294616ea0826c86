package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type dbUser struct {
	ID           int         `db:"id"`
	Username     string      `db:"username"`
	PasswordHash []byte      `db:"password_hash"`
	Role         string      `db:"role"`
	Course       null.String `db:"course"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (repo userRepository) unpack(u dbUser) user.User {
	return user.User{
		ID:           u.ID,
		Username:     u.Username,
		Role:         user.Role(u.Role),
		Course:       u.Course,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLogin:    u.LastLogin.Time,
	}
}

func (repo userRepository) unpackSlice(dbUsers []dbUser) []user.User {
	users := make([]user.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, repo.unpack(u))
	}
	return users
}

// trapNoRowsErr maps sql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(username string, excludedUsers ...user.User) error {
	query := `SELECT COUNT(*) FROM users WHERE username = ?`
	args := []interface{}{username}
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q, inArgs, err := sqlx.In(`SELECT COUNT(*) FROM users WHERE username = ? AND id NOT IN (?)`, username, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query, args = q, inArgs
	}

	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if count > 0 {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo userRepository) CreateUser(usr user.User) (user.User, error) {
	res, err := repo.db.Exec(
		`INSERT INTO users (username, password_hash, role, course, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		usr.Username, usr.PasswordHash, string(usr.Role), usr.Course, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting new user ID")
	}
	usr.ID = int(id)
	return usr, nil
}

func (repo userRepository) QueryAllUsers() ([]user.User, error) {
	var dbUsers []dbUser
	if err := repo.db.Select(&dbUsers, `SELECT * FROM users ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unpackSlice(dbUsers), nil
}

func (repo userRepository) GetUserByID(id int) (user.User, error) {
	var u dbUser
	if err := repo.db.Get(&u, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) GetUserByUsername(username string) (user.User, error) {
	var u dbUser
	if err := repo.db.Get(&u, `SELECT * FROM users WHERE username = ?`, username); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by username")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) UpdateUser(usr user.User) (user.User, error) {
	query := `UPDATE users SET username = ?, role = ?, course = ?, updated_at = ? WHERE id = ?`
	args := []interface{}{usr.Username, string(usr.Role), usr.Course, usr.UpdatedAt, usr.ID}
	if len(usr.PasswordHash) > 0 {
		query = `UPDATE users SET username = ?, role = ?, course = ?, password_hash = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{usr.Username, string(usr.Role), usr.Course, usr.PasswordHash, usr.UpdatedAt, usr.ID}
	}

	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	} else if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo userRepository) SetLastLogin(id int, t time.Time) error {
	res, err := repo.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, t, id)
	if err != nil {
		return errors.Wrap(err, "setting last login")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "setting last login")
	} else if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) DeleteUsersByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting users")
	} else if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
