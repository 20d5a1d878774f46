package api

import (
	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/validity"
)

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	BirthYear *int   `json:"birth_year"`
	Education string `json:"education"`
	Country   string `json:"country"`
	Region    string `json:"region"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type requestPasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type userDTO struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

type authResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	User         userDTO `json:"user"`
}

type questionDTO struct {
	ID       int64    `json:"id"`
	Prompt   string   `json:"prompt"`
	Stimulus string   `json:"stimulus,omitempty"`
	Options  []string `json:"options"`
	Domain   string   `json:"domain"`
}

func toQuestionDTO(it *model.Item) questionDTO {
	return questionDTO{ID: it.ID, Prompt: it.Prompt, Stimulus: it.Stimulus, Options: it.Options, Domain: string(it.Domain)}
}

type domainScoreDTO struct {
	Domain   string  `json:"domain"`
	Items    int     `json:"items"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

type validityDTO struct {
	Bucket              string  `json:"bucket"`
	UnexpectedCorrect   int     `json:"unexpected_correct"`
	UnexpectedIncorrect int     `json:"unexpected_incorrect"`
	FitRatio            float64 `json:"fit_ratio"`
	Aberrant            bool    `json:"aberrant"`
}

func toValidityDTO(r validity.Report) validityDTO {
	return validityDTO{
		Bucket: string(r.Bucket), UnexpectedCorrect: r.UnexpectedCorrect,
		UnexpectedIncorrect: r.UnexpectedIncorrect, FitRatio: r.FitRatio, Aberrant: r.Aberrant,
	}
}

type resultDTO struct {
	SessionID         int64            `json:"session_id"`
	Theta             float64          `json:"theta"`
	SE                float64          `json:"se"`
	IQ                int              `json:"iq"`
	IQSE              float64          `json:"iq_se"`
	IQLow             int              `json:"iq_low"`
	IQHigh            int              `json:"iq_high"`
	ItemsAdministered int              `json:"items_administered"`
	StoppingReason    string           `json:"stopping_reason"`
	DomainScores      []domainScoreDTO `json:"domain_scores"`
	Validity          *validityDTO     `json:"validity,omitempty"`
}

func toResultDTO(r model.Result) resultDTO {
	scores := make([]domainScoreDTO, 0, len(r.DomainScores))
	for _, ds := range r.DomainScores {
		scores = append(scores, domainScoreDTO{
			Domain: string(ds.Domain), Items: ds.Items, Correct: ds.Correct, Accuracy: ds.Accuracy,
		})
	}
	return resultDTO{
		SessionID: r.SessionID, Theta: r.Theta, SE: r.SE,
		IQ: r.IQ, IQSE: r.IQSE, IQLow: r.IQLow, IQHigh: r.IQHigh,
		ItemsAdministered: r.ItemsAdministered, StoppingReason: string(r.StoppingReason),
		DomainScores: scores,
	}
}

type testStartResponse struct {
	SessionID         int64         `json:"session_id"`
	Mode              string        `json:"mode"`
	CurrentTheta      float64       `json:"current_theta"`
	CurrentSE         float64       `json:"current_se"`
	NextQuestion      *questionDTO  `json:"next_question,omitempty"`
	Questions         []questionDTO `json:"questions,omitempty"`
	ItemsAdministered int           `json:"items_administered"`
}

type testNextRequest struct {
	SessionID        int64    `json:"session_id" binding:"required"`
	QuestionID       int64    `json:"question_id" binding:"required"`
	UserAnswer       int      `json:"user_answer"`
	TimeSpentSeconds *float64 `json:"time_spent_seconds"`
}

type testNextResponse struct {
	TestComplete      bool         `json:"test_complete"`
	NextQuestion      *questionDTO `json:"next_question,omitempty"`
	ItemsAdministered int          `json:"items_administered"`
	CurrentTheta      float64      `json:"current_theta"`
	CurrentSE         float64      `json:"current_se"`
	Result            *resultDTO   `json:"result,omitempty"`
	StoppingReason    string       `json:"stopping_reason,omitempty"`
}

type submitItemRequest struct {
	QuestionID       int64    `json:"question_id" binding:"required"`
	UserAnswer       int      `json:"user_answer"`
	TimeSpentSeconds *float64 `json:"time_spent_seconds"`
}

type testSubmitRequest struct {
	SessionID int64               `json:"session_id" binding:"required"`
	Answers   []submitItemRequest `json:"answers" binding:"required"`
}

type reliabilityReportDTO struct {
	Kind       string  `json:"kind"`
	Value      float64 `json:"value"`
	SampleSize int     `json:"sample_size"`
}

type reliabilityHistoryEntryDTO struct {
	Kind         string  `json:"kind"`
	Value        float64 `json:"value"`
	SampleSize   int     `json:"sample_size"`
	CalculatedAt string  `json:"calculated_at"`
}
