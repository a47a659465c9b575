package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/arriendoya/booking-api/internal/model"
	"github.com/arriendoya/booking-api/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")
var ErrRUTExists = errors.New("rut already exists")

const userColumns = "id,email,rut,nombres,appaterno,apmaterno,fecha_nacimiento,tipo,password,activo,fecha_creacion"

// Create inserts a user and returns its ID. The password is hashed with
// bcrypt before storage. Duplicate email/rut rows surface as sentinel
// errors so handlers can answer 409.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO usuario (email, rut, nombres, appaterno, apmaterno, fecha_nacimiento, tipo, password) VALUES (?,?,?,?,?,?,?,?)",
		u.Email, u.RUT, u.Names, u.Surname, u.SecondSurname, u.BirthDate, u.Role, hash)
	if err != nil {
		// 1062 = duplicate key; the message names the violated index
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "rut") {
				return 0, ErrRUTExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM usuario WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM usuario WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, q string, arg interface{}) (model.User, error) {
	var (
		u         model.User
		birth     time.Time
		createdAt time.Time
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.RUT, &u.Names, &u.Surname, &u.SecondSurname,
		&birth, &u.Role, &u.PasswordHash, &u.Active, &createdAt)
	if err != nil {
		return model.User{}, err
	}
	u.BirthDate = birth
	u.CreatedAt = createdAt
	return u, nil
}
