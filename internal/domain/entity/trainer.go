package entity

import "time"

// Trainer is the profile of a user with the trainer role
type Trainer struct {
	ID                int64        `json:"id"`
	UserID            int64        `json:"user_id"`
	Name              string       `json:"name"`
	Email             string       `json:"email"`
	Phone             string       `json:"phone"`
	Expertise         []string     `json:"expertise"`
	YearsOfExperience int          `json:"years_of_experience"`
	Bio               string       `json:"bio"`
	Certifications    []string     `json:"certifications"`
	HourlyRate        float64      `json:"hourly_rate"`
	Availability      Availability `json:"availability"`
	Rating            float64      `json:"rating"`
	TotalTrainings    int          `json:"total_trainings"`
	ProfileImage      string       `json:"profile_image,omitempty"`
	LinkedIn          string       `json:"linked_in,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// HasExpertise reports whether the trainer lists the given technology
func (t *Trainer) HasExpertise(technology string) bool {
	for _, e := range t.Expertise {
		if e == technology {
			return true
		}
	}
	return false
}

// AddCertification appends a certification unless it is already present
func (t *Trainer) AddCertification(cert string) bool {
	for _, c := range t.Certifications {
		if c == cert {
			return false
		}
	}
	t.Certifications = append(t.Certifications, cert)
	return true
}

// RemoveCertification removes a certification, keeping the order of the rest
func (t *Trainer) RemoveCertification(cert string) bool {
	for i, c := range t.Certifications {
		if c == cert {
			t.Certifications = append(t.Certifications[:i:i], t.Certifications[i+1:]...)
			return true
		}
	}
	return false
}
