package cfg

type Cfg struct {
	// Storage
	DBPath    string
	SitesDir  string
	OutputDir string

	// HTTP server
	Port    string
	BaseUrl string

	// Scheduling
	WorkerCount       int
	SchedulerInterval int
	Once              bool

	// Scraping
	UserAgent    string
	FetchTimeout int
	ProbeTimeout int

	// Application metadata
	LogFile  string
	Timezone string
	Debug    bool
	Version  string
}
