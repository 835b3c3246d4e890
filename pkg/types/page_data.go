package types

type NavbarData struct {
	IsAuthenticated bool
	IsAdmin         bool
	UserID          string
	UserEmail       string
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title  string
	Notice string
	Error  string
	Navbar NavbarData
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

type HomePageData struct {
	BasePageData
	Surveys []*Survey
}

type LoginPageData struct {
	BasePageData
	RedirectedFrom string
	Confirmed      bool
}

type ResetPasswordPageData struct {
	BasePageData
	ErrorCode        string
	ErrorDescription string
}

type DashboardPageData struct {
	BasePageData
	Surveys []*Survey
	Stats   UserStats
}

type AdminPageData struct {
	BasePageData
	PendingSurveys []*PendingSurvey
	Users          []*User
}

type SurveyFormPageData struct {
	BasePageData
	Survey        *Survey
	QuestionTypes []QuestionType
}

type MapPageData struct {
	BasePageData
	Points []*MapPoint
}

type RewardsPageData struct {
	BasePageData
	Rewards []*Reward
	History []*ClaimedRewardView
	Stats   UserStats
}
