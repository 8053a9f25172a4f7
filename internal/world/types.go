package world

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type BlockRef struct {
	Name     string `json:"name"`
	Position Vec3   `json:"position"`
}

type EntityRef struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Position Vec3   `json:"position"`
}

// GameState is a read-only snapshot of the bot's surroundings, captured fresh
// before each parse call and never cached across commands.
type GameState struct {
	Position       Vec3        `json:"position"`
	Health         int         `json:"health"` // 0..20
	Food           int         `json:"food"`   // 0..20
	Inventory      []ItemStack `json:"inventory"`
	NearbyBlocks   []BlockRef  `json:"nearby_blocks"`
	NearbyEntities []EntityRef `json:"nearby_entities"`
	TimeOfDay      int64       `json:"time_of_day"`
	Weather        string      `json:"weather"`
}
