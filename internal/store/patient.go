package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// PatientRepository handles persistence for patients: the base users
// row, the patients subtype row, and the doctor_patient assignments.
type PatientRepository struct {
	db *sql.DB
}

func NewPatientRepository(db *sql.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Create inserts the base row, the subtype row and the initial doctor
// assignments in one transaction.
func (r *PatientRepository) Create(ctx context.Context, patient types.Patient) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const userQuery = `
		INSERT INTO users (email, password, name, surname, role)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, userQuery,
		patient.Email,
		patient.PasswordHash,
		patient.Name,
		patient.Surname,
		types.RolePatient,
	); err != nil {
		return wrapError(err)
	}

	const patientQuery = `
		INSERT INTO patients (email, ailments, gender, age, treatments, height_cm, weight_kg)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, patientQuery,
		patient.Email,
		nullString(patient.Ailments),
		patient.Gender,
		patient.Age,
		nullString(patient.Treatments),
		patient.HeightCM,
		patient.WeightKG,
	); err != nil {
		return wrapError(err)
	}

	if err := syncPatientDoctors(ctx, tx, patient.Email, patient.Doctors); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PatientRepository) Get(ctx context.Context, email string) (types.Patient, error) {
	const query = `
		SELECT u.email, u.password, u.name, u.surname, u.role,
			p.ailments, p.gender, p.age, p.treatments, p.height_cm, p.weight_kg
		FROM users u
		JOIN patients p ON p.email = u.email
		WHERE u.email = $1`
	var patient types.Patient
	var ailments, treatments sql.NullString
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&patient.Email,
		&patient.PasswordHash,
		&patient.Name,
		&patient.Surname,
		&patient.Role,
		&ailments,
		&patient.Gender,
		&patient.Age,
		&treatments,
		&patient.HeightCM,
		&patient.WeightKG,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Patient{}, ErrNotFound
		}
		return types.Patient{}, err
	}
	if ailments.Valid {
		patient.Ailments = &ailments.String
	}
	if treatments.Valid {
		patient.Treatments = &treatments.String
	}

	patient.Doctors, err = r.doctorEmails(ctx, email)
	if err != nil {
		return types.Patient{}, err
	}
	return patient, nil
}

// Update rewrites the base and subtype rows and syncs the doctor
// assignments to match patient.Doctors.
func (r *PatientRepository) Update(ctx context.Context, patient types.Patient) error {
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
		patient.PasswordHash,
		patient.Name,
		patient.Surname,
		patient.Email,
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

	const patientQuery = `
		UPDATE patients
		SET ailments = $1,
			gender = $2,
			age = $3,
			treatments = $4,
			height_cm = $5,
			weight_kg = $6
		WHERE email = $7`
	if _, err := tx.ExecContext(ctx, patientQuery,
		nullString(patient.Ailments),
		patient.Gender,
		patient.Age,
		nullString(patient.Treatments),
		patient.HeightCM,
		patient.WeightKG,
		patient.Email,
	); err != nil {
		return wrapError(err)
	}

	if err := syncPatientDoctors(ctx, tx, patient.Email, patient.Doctors); err != nil {
		return err
	}

	return tx.Commit()
}

// ListByDoctor returns the patients assigned to a doctor, each with
// their full doctor list loaded.
func (r *PatientRepository) ListByDoctor(ctx context.Context, doctorEmail string) ([]types.Patient, error) {
	const query = `
		SELECT u.email, u.password, u.name, u.surname, u.role,
			p.ailments, p.gender, p.age, p.treatments, p.height_cm, p.weight_kg
		FROM users u
		JOIN patients p ON p.email = u.email
		JOIN doctor_patient dp ON dp.patient_email = p.email
		WHERE dp.doctor_email = $1
		ORDER BY u.email`
	rows, err := r.db.QueryContext(ctx, query, doctorEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := make([]types.Patient, 0)
	for rows.Next() {
		var patient types.Patient
		var ailments, treatments sql.NullString
		if err := rows.Scan(
			&patient.Email,
			&patient.PasswordHash,
			&patient.Name,
			&patient.Surname,
			&patient.Role,
			&ailments,
			&patient.Gender,
			&patient.Age,
			&treatments,
			&patient.HeightCM,
			&patient.WeightKG,
		); err != nil {
			return nil, err
		}
		if ailments.Valid {
			patient.Ailments = &ailments.String
		}
		if treatments.Valid {
			patient.Treatments = &treatments.String
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range patients {
		patients[i].Doctors, err = r.doctorEmails(ctx, patients[i].Email)
		if err != nil {
			return nil, err
		}
	}
	return patients, nil
}

func (r *PatientRepository) doctorEmails(ctx context.Context, patientEmail string) ([]string, error) {
	const query = `
		SELECT doctor_email
		FROM doctor_patient
		WHERE patient_email = $1
		ORDER BY doctor_email`
	rows, err := r.db.QueryContext(ctx, query, patientEmail)
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

// syncPatientDoctors makes the stored assignments match exactly the
// given doctor emails.
func syncPatientDoctors(ctx context.Context, tx *sql.Tx, patientEmail string, doctors []string) error {
	const deleteQuery = `DELETE FROM doctor_patient WHERE patient_email = $1`
	if _, err := tx.ExecContext(ctx, deleteQuery, patientEmail); err != nil {
		return wrapError(err)
	}

	const insertQuery = `
		INSERT INTO doctor_patient (doctor_email, patient_email)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	for _, doctorEmail := range doctors {
		if _, err := tx.ExecContext(ctx, insertQuery, doctorEmail, patientEmail); err != nil {
			return wrapError(err)
		}
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
