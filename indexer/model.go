package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Session struct {
	Address        string `gorm:"primary_key" json:"address"`
	Chairperson    string `gorm:"index" json:"chairperson"`
	Seed           string `json:"seed"`
	Deadline       int64  `json:"deadline"`
	ProposalCount  uint32 `json:"proposal_count"`
	WinnerIdx      uint8  `json:"winner_idx"`
	WinnerVotes    uint32 `json:"winner_votes"`
	WinnerSelected bool   `json:"winner_selected"`
	TalliedBy      string `json:"tallied_by"`
	CreateHeight   uint64 `json:"create_height"`
	TallyHeight    uint64 `json:"tally_height"`
}

type Proposal struct {
	Address string `gorm:"primary_key" json:"address"`
	Session string `gorm:"index" json:"session"`
	Idx     uint8  `json:"index"`
	Text    string `json:"text"`
	Votes   uint32 `json:"votes"`
	Height  uint64 `json:"height"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Session  string `gorm:"index" json:"session"`
	Proposal string `json:"proposal"`
	Voter    string `json:"voter"`
	Marker   string `gorm:"unique_index" json:"marker"`
	Height   uint64 `json:"height"`
}

type Member struct {
	Record         string `gorm:"primary_key" json:"record"`
	Session        string `gorm:"index" json:"session"`
	Member         string `json:"member"`
	Weight         uint8  `json:"weight"`
	ProposeAnswers bool   `json:"propose_answers"`
	Height         uint64 `json:"height"`
}
