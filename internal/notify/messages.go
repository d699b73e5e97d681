package notify

// Messages holds the generic notification texts of one language.
type Messages struct {
	ErrorTitle     string
	APIUnreachable string
	GenericError   string
	SessionExpired string
}

var catalog = map[string]Messages{
	"en": {
		ErrorTitle:     "Error",
		APIUnreachable: "API is unreachable",
		GenericError:   "An error has occurred",
		SessionExpired: "Your session has expired, please sign in again",
	},
	"fr": {
		ErrorTitle:     "Erreur",
		APIUnreachable: "L'API est injoignable",
		GenericError:   "Une erreur est survenue",
		SessionExpired: "Votre session a expiré, veuillez vous reconnecter",
	},
}

// MessagesFor returns the messages of lang, falling back to English.
func MessagesFor(lang string) Messages {
	if m, ok := catalog[lang]; ok {
		return m
	}
	return catalog["en"]
}
