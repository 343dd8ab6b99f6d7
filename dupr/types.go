package dupr

// tokenResponse is the client-credential exchange result.
type tokenResponse struct {
	Result struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	} `json:"result"`
}

// MatchTeam is one side of a doubles match payload.
type MatchTeam struct {
	Player1DuprID string `json:"player1DuprId"`
	Player2DuprID string `json:"player2DuprId"`
	GameScores    []int  `json:"gameScores"`
}

// MatchPayload is one match sent to the provider, either alone or as part of
// a batch.
type MatchPayload struct {
	Identifier string    `json:"identifier"`
	Event      string    `json:"event"`
	Bracket    string    `json:"bracket"`
	Location   string    `json:"location"`
	MatchDate  string    `json:"matchDate"`
	MatchType  string    `json:"matchType"`
	Format     string    `json:"format"`
	ClubID     string    `json:"clubId,omitempty"`
	Team1      MatchTeam `json:"team1"`
	Team2      MatchTeam `json:"team2"`
}

// MatchResult is the per-match echo in create and batch responses.
type MatchResult struct {
	MatchID    string `json:"matchId"`
	MatchCode  string `json:"matchCode"`
	Identifier string `json:"identifier"`
}

type createMatchResponse struct {
	Result MatchResult `json:"result"`
}

type batchCreateResponse struct {
	Result struct {
		Matches []MatchResult `json:"matches"`
	} `json:"result"`
}

// RemoteMatch is a provider-side match record returned by club match search.
type RemoteMatch struct {
	MatchID    string `json:"matchId"`
	MatchCode  string `json:"matchCode"`
	Identifier string `json:"identifier"`
	Event      string `json:"event"`
	Bracket    string `json:"bracket"`
	MatchDate  string `json:"matchDate"`
	Status     string `json:"status"`
}

type searchMatchesResponse struct {
	Result struct {
		Hits  []RemoteMatch `json:"hits"`
		Total int           `json:"total"`
	} `json:"result"`
}

// ClubMembership is one club a user belongs to, with their role in it.
type ClubMembership struct {
	ClubID string `json:"clubId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type userClubsResponse struct {
	Result []ClubMembership `json:"result"`
}
