// Package types defines the shared data structures for the heartweek engine.
// This package contains only type definitions and no logic. The one exception
// is the unexported marker method that closes the PlaceKind sum type.
package types

// Day is a weekday. The week starts on Monday and ends on Sunday.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysPerWeek is the length of one run.
const DaysPerWeek = 7

// MinutesPerDay bounds Clock.Time.
const MinutesPerDay = 1440

// Clock is the in-game day and time plus the scheduler watermark.
type Clock struct {
	Day               Day  `json:"day"`
	Time              int  `json:"time"` // minutes since midnight
	IsNewDay          bool `json:"is_new_day"`
	LastTriggeredDay  Day  `json:"last_triggered_day"`
	LastTriggeredTime int  `json:"last_triggered_time"`
}

// Rarity orders items from most to least common.
type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Mythic
)

// Category classifies items.
type Category string

const (
	CategorySeed    Category = "seed"
	CategorySprout  Category = "sprout"
	CategoryCrop    Category = "crop"
	CategoryFish    Category = "fish"
	CategoryMineral Category = "mineral"
	CategoryForage  Category = "forage"
	CategoryGift    Category = "gift"
	CategoryMythegg Category = "mythegg"
	CategoryUnknown Category = "unknown"
)

// Activity groups item categories for income and intake statistics.
type Activity string

const (
	Farming  Activity = "farming"
	Mining   Activity = "mining"
	Fishing  Activity = "fishing"
	Foraging Activity = "foraging"
)

// Item is the static definition of an item.
type Item struct {
	ID         string
	Name       string
	Category   Category
	Price      int
	Rarity     Rarity
	GrowsInto  string // next growth stage (seeds and sprouts)
	GrowthDays int    // watered nights needed per stage
	Emoji      string
}

// ItemToken is one instance of an Item in an inventory, a place or storage.
type ItemToken struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id"`
	Watered     bool   `json:"watered,omitempty"`
	DaysGrowing int    `json:"days_growing,omitempty"`
	Quantity    int    `json:"quantity,omitempty"` // shop stock only
	FromShop    bool   `json:"from_shop,omitempty"`
}

// PlaceType drives which actions a place offers.
type PlaceType string

const (
	PlaceFarm     PlaceType = "farm"
	PlaceTown     PlaceType = "town"
	PlaceMountain PlaceType = "mountain"
	PlaceForest   PlaceType = "forest"
	PlaceBeach    PlaceType = "beach"
	PlaceShop     PlaceType = "shop"
	PlaceHome     PlaceType = "home"
)

// OpenHours restricts when a building can be entered. Open ≤ t < Close.
type OpenHours struct {
	Open  int
	Close int
}

// PlaceKind is either Plain or Building.
type PlaceKind interface {
	isPlaceKind()
}

// Plain is a place that is not inside anything.
type Plain struct{}

// Building sits inside Surrounding. Nil Hours means always open.
type Building struct {
	Surrounding string
	Hours       *OpenHours
}

func (Plain) isPlaceKind()    {}
func (Building) isPlaceKind() {}

// Place is the static definition of a location.
type Place struct {
	ID    string
	Name  string
	Type  PlaceType
	Kind  PlaceKind
	Pool  []string // item IDs drawable here (wild types)
	Emoji string
}

// Bridge connects two places. Each endpoint has its own direction label.
type Bridge struct {
	A       string
	B       string
	LabelA  string // shown when leaving A
	LabelB  string // shown when leaving B
	Minutes int
}

// Valence is a villager's reaction to a gift.
type Valence string

const (
	Love    Valence = "love"
	Like    Valence = "like"
	Neutral Valence = "neutral"
	Dislike Valence = "dislike"
	Hate    Valence = "hate"
)

// Dialogue triggers.
const (
	TriggerFirstMeeting = "first_meeting"
	TriggerTalk         = "talk"
)

// Villager is the static definition of a villager.
type Villager struct {
	ID           string
	Name         string
	Friendliness int
	Location     string
	Portrait     string
	Preferences  map[string]Valence  // item ID or category → valence
	Dialogue     map[string][]string // trigger → line per affinity tier
}

// VillagerState is the per-run state of a villager.
type VillagerState struct {
	VillagerID    string `json:"villager_id"`
	Affinity      int    `json:"affinity"`
	TalkedToday   bool   `json:"talked_today,omitempty"`
	GiftedToday   bool   `json:"gifted_today,omitempty"`
	TalkedToCount int    `json:"talked_to_count"`
	GiftsReceived int    `json:"gifts_received"`
	Location      string `json:"location"`
}

// PlaceState is the per-run contents of a place.
type PlaceState struct {
	PlaceID  string      `json:"place_id"`
	Contents []ItemToken `json:"contents"`
}

// EventKind selects what a scheduled event does.
type EventKind int

const (
	EventShopPopulates EventKind = iota + 1
	EventVillagerAppears
)

// ScheduledEvent is authored content; it is never mutated at runtime.
type ScheduledEvent struct {
	ID       string
	Daily    bool
	Day      Day // ignored when Daily
	Time     int
	Kind     EventKind
	Shop     string // EventShopPopulates: the shop recipe ID
	Villager string // EventVillagerAppears
	Place    string // EventVillagerAppears
}

// StockEntry is a fixed quantity of an item.
type StockEntry struct {
	ItemID   string
	Quantity int
}

// ShopRecipe describes how a shop is restocked.
type ShopRecipe struct {
	ID          string
	Place       string
	Seeds       []StockEntry
	Gift        *StockEntry
	Merchandise []Rarity // one slot per entry
	Pool        []string // item IDs merchandise is rolled from
}

// Achievement triggers.
const (
	AchTalkToVillagers = "talkToVillagers"
	AchGainHearts      = "gainHearts"
	AchEarnMoney       = "earnMoney"
	AchHarvest         = "harvest"
	AchGather          = "gather"
	AchGainAchievement = "gainAchievement"
	AchScorePoints     = "scorePoints"
)

// Achievement predicate kinds.
const (
	KindTalkCount        = "talk_count"
	KindMaxAffinityByDay = "max_affinity_by_day"
	KindHeartsTotal      = "hearts_total"
	KindAllVillagersTier = "all_villagers_tier"
	KindKoinEarned       = "koin_earned"
	KindActivityIncome   = "activity_income"
	KindActivityIntake   = "activity_intake"
	KindAchievementCount = "achievement_count"
	KindScore            = "score"
)

// AchievementDef is the static definition of an achievement.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Trigger     string
	Kind        string
	Threshold   int
	Villager    string   // optional
	Day         *Day     // optional deadline
	Activity    Activity // optional
}

// Hero outlives weekly runs.
type Hero struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Portrait      string          `json:"portrait"`
	HighScore     int             `json:"high_score"`
	BoostLevel    int             `json:"boost_level"`
	LuckLevel     int             `json:"luck_level"`
	RunsCompleted int             `json:"runs_completed"`
	Achievements  map[string]bool `json:"achievements"`
}

// HeroState is the per-run progress of the hero.
type HeroState struct {
	KoinEarned   int              `json:"koin_earned"`
	HeartsEarned int              `json:"hearts_earned"`
	Income       map[Activity]int `json:"income"`
	Intake       map[Activity]int `json:"intake"`
	IsInBed      bool             `json:"is_in_bed,omitempty"`
}

// Session is the complete mutable state of one weekly run.
type Session struct {
	ID          string                    `json:"id"`
	HeroID      string                    `json:"hero_id"`
	Seed        int64                     `json:"seed"`
	RNGPosition int64                     `json:"rng_position"`
	Turn        int                       `json:"turn"`
	Clock       Clock                     `json:"clock"`
	HeroState   HeroState                 `json:"hero_state"`
	Location    string                    `json:"location"`
	Wallet      int                       `json:"wallet"`
	Inventory   []ItemToken               `json:"inventory"`
	Storage     []ItemToken               `json:"storage"`
	Places      map[string]*PlaceState    `json:"places"`
	Villagers   map[string]*VillagerState `json:"villagers"`
	Messages    []string                  `json:"messages"`
	GameOver    bool                      `json:"game_over,omitempty"`
	NextToken   int                       `json:"next_token"`
}

// Rules holds the tuning the engine needs at runtime.
type Rules struct {
	StartDay       Day
	StartTime      int
	StartKoin      int
	Dawn           int
	Sunset         int
	OversleepTime  int
	InventorySlots int
	StorageSlots   int
	ShopSlots      int
	MaxStack       int
	MessageLog     int

	LuckCap         int
	LuckDenominator int
	LuckStep        int
	BoostCap        int
	BoostDivisor    int
	BoostStep       int

	MytheggChancePerHeart float64
}

// GameDef holds game metadata from Lua.
type GameDef struct {
	Title     string
	Author    string
	Version   string
	Start     string // starting place ID
	Farmhouse string // the hero's home place ID
	Intro     string
}

// Result is the output of a single turn.
type Result struct {
	Changed  []string
	Messages []string
	GameOver bool
}
