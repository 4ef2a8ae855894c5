package site

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Listing  ListingConfig  `yaml:"listing"`
	Content  ContentConfig  `yaml:"content"`
	Channel  ChannelConfig  `yaml:"channel"`
	Settings Settings       `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ListingConfig struct {
	URL                string        `yaml:"url"`      // page URL, {page} is replaced with the page number
	BaseURL            string        `yaml:"base_url"` // resolves relative post links
	StartPage          int           `yaml:"start_page"`
	EndPage            int           `yaml:"end_page"`
	ItemSelector       string        `yaml:"item_selector"`
	ItemParentSelector string        `yaml:"item_parent_selector"`
	CategorySelector   string        `yaml:"category_selector"`
	TitleSelector      string        `yaml:"title_selector"`
	LinkRewrites       []LinkRewrite `yaml:"link_rewrites"`
	Retries            int           `yaml:"retries"`
}

type LinkRewrite struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type ContentConfig struct {
	ContainerSelector   string   `yaml:"container_selector"`
	CDNBase             string   `yaml:"cdn_base"`
	RelativePrefixes    []string `yaml:"relative_prefixes"`
	DefaultPrefix       string   `yaml:"default_prefix"`
	AdSelectors         []string `yaml:"ad_selectors"`
	PlaceholderPatterns []string `yaml:"placeholder_patterns"`
	ImageWidth          string   `yaml:"image_width"`
	WrapVideo           bool     `yaml:"wrap_video"`
	ReadabilityFallback bool     `yaml:"readability_fallback"`
	Encoding            string   `yaml:"encoding"` // e.g. euc-kr; empty means detect
}

type ChannelConfig struct {
	Title             string   `yaml:"title"`
	Link              string   `yaml:"link"`
	Description       string   `yaml:"description"`
	Creator           string   `yaml:"creator"`
	DefaultCategories []string `yaml:"default_categories"`
	WordPress         bool     `yaml:"wordpress"`
	ThumbnailMetaKey  string   `yaml:"thumbnail_meta_key"`
}

type Settings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	Timeout         int  `yaml:"timeout"`          // seconds, per page fetch
	ProbeTimeout    int  `yaml:"probe_timeout"`    // seconds, featured image check
	MaxItems        int  `yaml:"max_items"`
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
