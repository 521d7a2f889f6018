package notify

// User-visible messages. Failures are deliberately generic: the cause is
// never part of the message.
const (
	LoginSucceeded  = "Succesvol ingelogd!"
	LoginFailed     = "Inloggen mislukt. Controleer je gegevens."
	SignupSucceeded = "Account succesvol aangemaakt!"
	SignupFailed    = "Account aanmaken mislukt. Probeer het opnieuw."
	LogoutSucceeded = "Succesvol uitgelogd"
	LogoutFailed    = "Uitloggen mislukt"

	LoadFailed      = "Taken laden mislukt"
	CreateSucceeded = "Taak toegevoegd"
	CreateFailed    = "Taak toevoegen mislukt"
	ToggleFailed    = "Taak bijwerken mislukt"
	DeleteSucceeded = "Taak verwijderd"
	DeleteFailed    = "Taak verwijderen mislukt"
)
