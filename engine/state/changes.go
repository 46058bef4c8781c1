package state

// Changes is the set of view groups a turn touched.
type Changes uint32

const (
	ChangedClock Changes = 1 << iota
	ChangedLocation
	ChangedInventory
	ChangedStorage
	ChangedWallet
	ChangedMessages
	ChangedVillagers
	ChangedPlace
	ChangedHeroState
	ChangedHero
	ChangedAchievements
	ChangedGameOver
)

var changeNames = []string{
	"clock",
	"location",
	"inventory",
	"storage",
	"wallet",
	"messages",
	"villagerStates",
	"place",
	"heroState",
	"hero",
	"achievements",
	"gameOver",
}

// Has reports whether every group in x is set.
func (c Changes) Has(x Changes) bool {
	return c&x == x
}

// Names lists the set groups in a fixed order.
func (c Changes) Names() []string {
	var out []string
	for i, name := range changeNames {
		if c&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}
