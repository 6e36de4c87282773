package models

type Settings struct {
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings      `json:"privacy"`
	Account       AccountSettings      `json:"account"`
}

type NotificationSettings struct {
	Email           bool `json:"email"`
	Push            bool `json:"push"`
	SMS             bool `json:"sms"`
	WeeklyDigest    bool `json:"weeklyDigest"`
	MarketingEmails bool `json:"marketingEmails"`
}

type PrivacySettings struct {
	ProfileVisibility string `json:"profileVisibility"`
	ShowEmail         bool   `json:"showEmail"`
	ShowPhone         bool   `json:"showPhone"`
}

type AccountSettings struct {
	Language string `json:"language"`
	Timezone string `json:"timezone"`
	Theme    string `json:"theme"`
}

// DefaultSettings is what a freshly registered user starts with.
func DefaultSettings() Settings {
	return Settings{
		Notifications: NotificationSettings{Email: true, WeeklyDigest: true},
		Privacy:       PrivacySettings{ProfileVisibility: "public"},
		Account:       AccountSettings{Language: "en", Timezone: "UTC", Theme: "light"},
	}
}
