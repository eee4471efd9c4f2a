package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// DoctorRepository handles persistence for doctors and their patient
// assignments.
type DoctorRepository struct {
	db *sql.DB
}

func NewDoctorRepository(db *sql.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// Create inserts the base row, the subtype row and the initial patient
// assignments in one transaction.
func (r *DoctorRepository) Create(ctx context.Context, doctor types.Doctor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const userQuery = `
		INSERT INTO users (email, password, name, surname, role)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, userQuery,
		doctor.Email,
		doctor.PasswordHash,
		doctor.Name,
		doctor.Surname,
		types.RoleDoctor,
	); err != nil {
		return wrapError(err)
	}

	const doctorQuery = `INSERT INTO doctors (email, gender) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, doctorQuery, doctor.Email, doctor.Gender); err != nil {
		return wrapError(err)
	}

	if err := syncDoctorPatients(ctx, tx, doctor.Email, doctor.Patients); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *DoctorRepository) Get(ctx context.Context, email string) (types.Doctor, error) {
	const query = `
		SELECT u.email, u.password, u.name, u.surname, u.role, d.gender
		FROM users u
		JOIN doctors d ON d.email = u.email
		WHERE u.email = $1`
	var doctor types.Doctor
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&doctor.Email,
		&doctor.PasswordHash,
		&doctor.Name,
		&doctor.Surname,
		&doctor.Role,
		&doctor.Gender,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Doctor{}, ErrNotFound
		}
		return types.Doctor{}, err
	}

	doctor.Patients, err = r.patientEmails(ctx, email)
	if err != nil {
		return types.Doctor{}, err
	}
	return doctor, nil
}

// Update rewrites the base and subtype rows and syncs the patient
// assignments to match doctor.Patients.
func (r *DoctorRepository) Update(ctx context.Context, doctor types.Doctor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const userQuery = `
		UPDATE users
		SET password = $1,
			name = $2,
			surname = $3
		WHERE email = $4`
	result, err := tx.ExecContext(ctx, userQuery,
		doctor.PasswordHash,
		doctor.Name,
		doctor.Surname,
		doctor.Email,
	)
	if err != nil {
		return wrapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	const doctorQuery = `UPDATE doctors SET gender = $1 WHERE email = $2`
	if _, err := tx.ExecContext(ctx, doctorQuery, doctor.Gender, doctor.Email); err != nil {
		return wrapError(err)
	}

	if err := syncDoctorPatients(ctx, tx, doctor.Email, doctor.Patients); err != nil {
		return err
	}

	return tx.Commit()
}

// Assign links the given patients to the doctor. Existing links are
// left untouched.
func (r *DoctorRepository) Assign(ctx context.Context, doctorEmail string, patientEmails []string) error {
	const query = `
		INSERT INTO doctor_patient (doctor_email, patient_email)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	for _, patientEmail := range patientEmails {
		if _, err := r.db.ExecContext(ctx, query, doctorEmail, patientEmail); err != nil {
			return wrapError(err)
		}
	}
	return nil
}

// Unassign removes the links between the doctor and the given
// patients. Links that do not exist are ignored.
func (r *DoctorRepository) Unassign(ctx context.Context, doctorEmail string, patientEmails []string) error {
	const query = `
		DELETE FROM doctor_patient
		WHERE doctor_email = $1 AND patient_email = $2`
	for _, patientEmail := range patientEmails {
		if _, err := r.db.ExecContext(ctx, query, doctorEmail, patientEmail); err != nil {
			return err
		}
	}
	return nil
}

// IsAssigned reports whether the doctor is linked to the patient.
func (r *DoctorRepository) IsAssigned(ctx context.Context, doctorEmail, patientEmail string) (bool, error) {
	const query = `
		SELECT 1
		FROM doctor_patient
		WHERE doctor_email = $1 AND patient_email = $2`
	var one int
	err := r.db.QueryRowContext(ctx, query, doctorEmail, patientEmail).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *DoctorRepository) patientEmails(ctx context.Context, doctorEmail string) ([]string, error) {
	const query = `
		SELECT patient_email
		FROM doctor_patient
		WHERE doctor_email = $1
		ORDER BY patient_email`
	rows, err := r.db.QueryContext(ctx, query, doctorEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// syncDoctorPatients makes the stored assignments match exactly the
// given patient emails.
func syncDoctorPatients(ctx context.Context, tx *sql.Tx, doctorEmail string, patients []string) error {
	const deleteQuery = `DELETE FROM doctor_patient WHERE doctor_email = $1`
	if _, err := tx.ExecContext(ctx, deleteQuery, doctorEmail); err != nil {
		return wrapError(err)
	}

	const insertQuery = `
		INSERT INTO doctor_patient (doctor_email, patient_email)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	for _, patientEmail := range patients {
		if _, err := tx.ExecContext(ctx, insertQuery, doctorEmail, patientEmail); err != nil {
			return wrapError(err)
		}
	}
	return nil
}
