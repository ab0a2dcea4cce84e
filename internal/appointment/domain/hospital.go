package domain

// Hospital statuses as written by the registration flow.
const (
	HospitalPending = "pending"
)

// Hospital is the notification-relevant projection of a hospital registration.
type Hospital struct {
	ID     string `firestore:"-" json:"id"`
	Name   string `firestore:"hospitalName" json:"hospitalName"`
	Status string `firestore:"status" json:"status"`
}

// Parent is the notification-relevant projection of a parent registration.
type Parent struct {
	ID       string `firestore:"-" json:"id"`
	Email    string `firestore:"email" json:"email"`
	FullName string `firestore:"fullName" json:"fullName"`
}

// VaccinationHistory is one completed-vaccine entry written by a hospital.
type VaccinationHistory struct {
	ID          string `firestore:"-" json:"id"`
	ParentEmail string `firestore:"parentEmail" json:"parentEmail"`
	ChildName   string `firestore:"childName" json:"childName"`
	VaccineName string `firestore:"vaccineName" json:"vaccineName"`
}
