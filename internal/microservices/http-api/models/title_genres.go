package models

// explicit join model for the titles <-> genres many2many, registered with
// SetupJoinTable so that deleting either side can clear its links
type TitleGenre struct {
	TitleID int64 `json:"title_id" gorm:"primaryKey"`
	GenreID int64 `json:"genre_id" gorm:"primaryKey;index"`
}

func (TitleGenre) TableName() string {
	return "title_genres"
}
