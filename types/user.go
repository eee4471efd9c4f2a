package types

// Role identifies the authorization level of an account.
// Stored in the users.role enum column.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known enum values.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Gender mirrors the gender enum column on patients and doctors.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOthers Gender = "others"
)

// Valid reports whether the gender is one of the known enum values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOthers:
		return true
	}
	return false
}

// User represents an account in the system. Patients, doctors and admins
// each extend it with a role-specific row keyed by the same email.
type User struct {
	// Email is the primary identifier of the account.
	Email string `json:"email" db:"email"`

	// Name is the user's given name.
	Name string `json:"name" db:"name"`

	// Surname is the user's family name.
	Surname string `json:"surname" db:"surname"`

	// Role indicates which subtype row completes this account.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password"`
}

// Patient extends User with clinical profile data and the emails of the
// doctors the patient is assigned to.
type Patient struct {
	User

	// Ailments is a free-form description of known conditions. Nullable.
	Ailments *string `json:"ailments" db:"ailments"`

	// Gender is the patient's declared gender.
	Gender Gender `json:"gender" db:"gender"`

	// Age in years. The schema enforces the 0..120 range.
	Age int `json:"age" db:"age"`

	// Treatments is a free-form description of ongoing treatments. Nullable.
	Treatments *string `json:"treatments" db:"treatments"`

	// HeightCM is the patient's height in centimeters, bounded (0, 250].
	HeightCM float64 `json:"height_cm" db:"height_cm"`

	// WeightKG is the patient's weight in kilograms, bounded (0, 600].
	WeightKG float64 `json:"weight_kg" db:"weight_kg"`

	// Doctors holds the emails of the assigned doctors.
	Doctors []string `json:"doctors" db:"-"`
}

// Doctor extends User with the emails of the assigned patients.
type Doctor struct {
	User

	// Gender is the doctor's declared gender.
	Gender Gender `json:"gender" db:"gender"`

	// Patients holds the emails of the assigned patients.
	Patients []string `json:"patients" db:"-"`
}

// Admin extends User with no extra columns.
type Admin struct {
	User
}

// Payload returns the wire form of the base account with the given
// role-specific payload nested under "role".
func (u *User) Payload(role map[string]any) map[string]any {
	return map[string]any{
		"email":   u.Email,
		"name":    u.Name,
		"surname": u.Surname,
		"role":    role,
	}
}

// RolePayload returns the patient-specific fields of the wire form.
func (p *Patient) RolePayload() map[string]any {
	doctors := p.Doctors
	if doctors == nil {
		doctors = []string{}
	}
	return map[string]any{
		"ailments":   p.Ailments,
		"gender":     p.Gender,
		"age":        p.Age,
		"treatments": p.Treatments,
		"height_cm":  p.HeightCM,
		"weight_kg":  p.WeightKG,
		"doctors":    doctors,
	}
}

// Payload returns the full wire form of the patient.
func (p *Patient) Payload() map[string]any {
	return p.User.Payload(p.RolePayload())
}

// RolePayload returns the doctor-specific fields of the wire form.
func (d *Doctor) RolePayload() map[string]any {
	patients := d.Patients
	if patients == nil {
		patients = []string{}
	}
	return map[string]any{
		"patients": patients,
	}
}

// Payload returns the full wire form of the doctor.
func (d *Doctor) Payload() map[string]any {
	return d.User.Payload(d.RolePayload())
}

// Payload returns the full wire form of the admin. The role payload is
// an empty object.
func (a *Admin) Payload() map[string]any {
	return a.User.Payload(map[string]any{})
}
