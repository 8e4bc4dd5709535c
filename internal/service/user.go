package service

import (
	"fmt"
	"strings"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/repository"
)

type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetOrCreate возвращает пользователя, создавая его при первом обращении.
// При смене имени/никнейма данные обновляются (upsert-on-rename).
func (s *UserService) GetOrCreate(chatID int64, username, firstName, lastName string) (*models.User, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		if firstName == "" {
			firstName = "Сотрудник"
		}
		user = &models.User{
			ChatID:    chatID,
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
			Role:      models.RoleClient,
		}
		if err := s.repo.Create(user); err != nil {
			return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
		}
		return user, nil
	}

	// Обновляем поля, если пользователь переименовался
	changed := false
	if username != "" && user.Username != username {
		user.Username = username
		changed = true
	}
	if firstName != "" && user.FirstName != firstName {
		user.FirstName = firstName
		changed = true
	}
	if lastName != "" && user.LastName != lastName {
		user.LastName = lastName
		changed = true
	}

	if changed {
		if err := s.repo.Update(user); err != nil {
			return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
		}
	}

	return user, nil
}

// GetByChatID возвращает пользователя по chatID
func (s *UserService) GetByChatID(chatID int64) (*models.User, error) {
	return s.repo.GetByChatID(chatID)
}

// GetByID возвращает пользователя по внутреннему ID
func (s *UserService) GetByID(id uint) (*models.User, error) {
	return s.repo.GetByID(id)
}

// GetAllUsers возвращает всех пользователей
func (s *UserService) GetAllUsers() ([]*models.User, error) {
	return s.repo.GetAll()
}

// IsAdmin проверяет, является ли пользователь администратором
func (s *UserService) IsAdmin(chatID int64) (bool, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return false, err
	}

	return user != nil && user.IsAdmin(), nil
}

// InitializeAdmin инициализирует администратора из конфига
func (s *UserService) InitializeAdmin(adminChatID int64) error {
	if adminChatID == 0 {
		return nil // Админ не задан в конфиге
	}

	existingUser, err := s.repo.GetByChatID(adminChatID)
	if err != nil {
		return err
	}

	if existingUser != nil {
		// Если пользователь существует, обновляем его роль на админа
		return s.repo.UpdateRole(adminChatID, "admin")
	}

	adminUser := &models.User{
		ChatID:    adminChatID,
		Username:  "admin",
		FirstName: "Администратор",
		LastName:  "",
		Role:      models.RoleAdmin,
	}

	return s.repo.Create(adminUser)
}

// FormatUserInfo форматирует информацию о пользователе для вывода
func (s *UserService) FormatUserInfo(user *models.User) string {
	var lines []string

	lines = append(lines, "👤 Профиль сотрудника:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🆔 ID чата: %d", user.ChatID))

	if user.Username != "" {
		lines = append(lines, fmt.Sprintf("📛 Никнейм: @%s", user.Username))
	}

	lines = append(lines, fmt.Sprintf("👨‍💼 Имя: %s", user.FirstName))

	if user.LastName != "" {
		lines = append(lines, fmt.Sprintf("👨‍💼 Фамилия: %s", user.LastName))
	}

	if user.Email != "" {
		lines = append(lines, fmt.Sprintf("📧 Почта: %s", user.Email))
	}

	roleEmoji := "👤"
	if user.IsAdmin() {
		roleEmoji = "👑"
	}
	lines = append(lines, fmt.Sprintf("%s Роль: %s", roleEmoji, user.Role))

	return strings.Join(lines, "\n")
}
