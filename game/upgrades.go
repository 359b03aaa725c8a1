package game

import "encoding/json"

// UpgradeKind enumerates everything a room can buy with its score.
type UpgradeKind int

const (
	UpgradeAutoClicker UpgradeKind = iota
	UpgradeClickMultiplier
	UpgradeBonusPerSecond
	UpgradeCriticalChance
	UpgradeGoldenClicks
	UpgradeMegaClick
	UpgradeThreeDMaker
	UpgradeRainbowMode
	UpgradeEnergyFactory
	numUpgrades
)

const (
	critPercentPerLevel   = 5
	goldenPercentPerLevel = 2
	bonusPerSecondValue   = 5
	megaClickValue        = 10
)

// Upgrades is the room-wide upgrade record. Leveled upgrades hold their
// level, one-shot upgrades a flag.
type Upgrades struct {
	AutoClicker     int  `json:"autoClicker"`
	ClickMultiplier int  `json:"clickMultiplier"`
	BonusPerSecond  int  `json:"bonusPerSecond"`
	CriticalChance  int  `json:"criticalChance"`
	GoldenClicks    int  `json:"goldenClicks"`
	MegaClick       int  `json:"megaClick"`
	ThreeDMaker     bool `json:"threeDMaker"`
	RainbowMode     bool `json:"rainbowMode"`
	EnergyFactory   bool `json:"energyFactory"`
}

func newUpgrades() Upgrades {
	return Upgrades{ClickMultiplier: 1}
}

// CriticalPercent is the chance, in percent, that a click is critical.
func (u Upgrades) CriticalPercent() int { return u.CriticalChance * critPercentPerLevel }

// GoldenPercent is the chance, in percent, that a click is golden.
func (u Upgrades) GoldenPercent() int { return u.GoldenClicks * goldenPercentPerLevel }

// IncomePerTick is what the income ticker adds once per second.
func (u Upgrades) IncomePerTick() int64 {
	return int64(u.AutoClicker*u.ClickMultiplier + u.BonusPerSecond*bonusPerSecondValue)
}

func (u Upgrades) MarshalJSON() ([]byte, error) {
	type plain Upgrades
	return json.Marshal(struct {
		plain
		CriticalPercent int `json:"criticalPercent"`
		GoldenPercent   int `json:"goldenPercent"`
	}{plain(u), u.CriticalPercent(), u.GoldenPercent()})
}

type upgradeSpec struct {
	name string
	base int64

	// leveled upgrades: cost = base * (level + offset)
	level    func(*Upgrades) *int
	offset   int
	maxLevel int

	// one-shot upgrades
	flag   func(*Upgrades) *bool
	notice string
}

var catalog = [numUpgrades]upgradeSpec{
	UpgradeAutoClicker: {
		name: "autoClicker", base: 50, offset: 1,
		level: func(u *Upgrades) *int { return &u.AutoClicker },
	},
	UpgradeClickMultiplier: {
		name: "clickMultiplier", base: 100,
		level: func(u *Upgrades) *int { return &u.ClickMultiplier },
	},
	UpgradeBonusPerSecond: {
		name: "bonusPerSecond", base: 200, offset: 1,
		level: func(u *Upgrades) *int { return &u.BonusPerSecond },
	},
	UpgradeCriticalChance: {
		name: "criticalChance", base: 300, offset: 1, maxLevel: 100 / critPercentPerLevel,
		level: func(u *Upgrades) *int { return &u.CriticalChance },
	},
	UpgradeGoldenClicks: {
		name: "goldenClicks", base: 500, offset: 1, maxLevel: 100 / goldenPercentPerLevel,
		level: func(u *Upgrades) *int { return &u.GoldenClicks },
	},
	UpgradeMegaClick: {
		name: "megaClick", base: 800, offset: 1,
		level: func(u *Upgrades) *int { return &u.MegaClick },
	},
	UpgradeThreeDMaker: {
		name: "threeDMaker", base: 1000, notice: MsgThreeDActivated,
		flag: func(u *Upgrades) *bool { return &u.ThreeDMaker },
	},
	UpgradeRainbowMode: {
		name: "rainbowMode", base: 1500, notice: MsgRainbowActivated,
		flag: func(u *Upgrades) *bool { return &u.RainbowMode },
	},
	UpgradeEnergyFactory: {
		name: "energyFactory", base: 3000, notice: MsgFactoryBuilt,
		flag: func(u *Upgrades) *bool { return &u.EnergyFactory },
	},
}

var upgradesByName = func() map[string]UpgradeKind {
	m := make(map[string]UpgradeKind, numUpgrades)
	for k := UpgradeKind(0); k < numUpgrades; k++ {
		m[catalog[k].name] = k
	}
	return m
}()

// LookupUpgrade resolves a wire name to its kind.
func LookupUpgrade(name string) (UpgradeKind, bool) {
	k, ok := upgradesByName[name]
	return k, ok
}

func (k UpgradeKind) String() string { return catalog[k].name }

// OneShot reports whether the upgrade can only be bought once.
func (k UpgradeKind) OneShot() bool { return catalog[k].flag != nil }

// Notice is the room-wide message announced after a one-shot purchase.
func (k UpgradeKind) Notice() string { return catalog[k].notice }

// Cost is the price of the next level (or the flat price) given u.
func (k UpgradeKind) Cost(u Upgrades) int64 {
	s := catalog[k]
	if s.flag != nil {
		return s.base
	}
	return s.base * int64(*s.level(&u)+s.offset)
}

// Check returns why the upgrade cannot be bought, ignoring price.
func (k UpgradeKind) Check(u Upgrades) error {
	s := catalog[k]
	if s.flag != nil {
		if *s.flag(&u) {
			return ErrUpgradeOwned
		}
		return nil
	}
	if s.maxLevel > 0 && *s.level(&u) >= s.maxLevel {
		return ErrUpgradeMaxed
	}
	return nil
}

func (k UpgradeKind) apply(u *Upgrades) {
	s := catalog[k]
	if s.flag != nil {
		*s.flag(u) = true
		return
	}
	*s.level(u)++
}
