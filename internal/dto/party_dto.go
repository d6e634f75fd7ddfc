package dto

type CreatePartyRequest struct {
	Type      string `json:"type" validate:"required,oneof=customer supplier"`
	Email     string `json:"email" validate:"required,email"`
	FullName  string `json:"full_name" validate:"required"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	GSTNumber string `json:"gst_number"`
	Address   string `json:"address"`
}

type UpdatePartyRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FullName  string `json:"full_name"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	GSTNumber string `json:"gst_number"`
	Address   string `json:"address"`
}

type PartyResponse struct {
	ID        string `json:"_id"`
	Type      string `json:"type"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	GSTNumber string `json:"gst_number,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at"`
}

type PartyFilter struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Type  string `form:"type"`
}

type PartyListResponse struct {
	Data  []PartyResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
