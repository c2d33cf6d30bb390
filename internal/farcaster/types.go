package farcaster

// User is a Farcaster account profile as returned by the user bulk endpoint.
type User struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	PfpURL         string `json:"pfp_url"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	Bio            struct {
		Text string `json:"text"`
	} `json:"bio"`
	VerifiedAddresses struct {
		EthAddresses []string `json:"eth_addresses"`
		SolAddresses []string `json:"sol_addresses"`
	} `json:"verified_addresses"`
}

// Cast is a single post.
type Cast struct {
	Hash      string `json:"hash"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at,omitempty"`
	Author    struct {
		FID      int64  `json:"fid"`
		Username string `json:"username"`
	} `json:"author"`
	Reactions struct {
		Likes   []struct{} `json:"likes"`
		Recasts []struct{} `json:"recasts"`
	} `json:"reactions"`
}

// Conversation is the ancestry view of a cast: the cast itself plus its
// parent chain ordered oldest to newest.
type Conversation struct {
	Cast                     Cast   `json:"cast"`
	ChronologicalParentCasts []Cast `json:"chronological_parent_casts"`
}

type usersResponse struct {
	Users []User `json:"users"`
}

type feedResponse struct {
	Casts []Cast `json:"casts"`
}

type conversationResponse struct {
	Conversation struct {
		Cast struct {
			Cast
			ChronologicalParentCasts []Cast `json:"chronological_parent_casts"`
		} `json:"cast"`
	} `json:"conversation"`
}

type publishRequest struct {
	SignerUUID string `json:"signer_uuid"`
	Text       string `json:"text"`
	Parent     string `json:"parent,omitempty"`
}

type publishResponse struct {
	Cast Cast `json:"cast"`
}
