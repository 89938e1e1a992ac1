package transit

type Stop struct {
	PrimaryIdentifier string `json:"id"`

	PrimaryName string `json:"name"`
	Code        string `json:"code,omitempty"`

	Location *Location `json:"location,omitempty"`
}

type Route struct {
	PrimaryIdentifier string `json:"id"`

	ShortName string `json:"shortName"`
	LongName  string `json:"longName,omitempty"`
	Color     string `json:"color,omitempty"`
}
