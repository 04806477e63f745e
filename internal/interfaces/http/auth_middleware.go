package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/sales-kpi-api/internal/application/dto"
	"github.com/jhoicas/sales-kpi-api/pkg/jwt"
)

// Locals keys de la identidad autenticada en Fiber.
const (
	LocalEmployeeID   = "employee_id"
	LocalEmployeeName = "employee_name"
	LocalRole         = "role"
)

// Roles reconocidos. Los tokens del sistema de gestión comercial pueden traer el rol en coreano.
const (
	RoleAdmin = "admin"
	RoleSales = "sales"
)

var roleAliases = map[string]string{
	"관리자":  RoleAdmin,
	"영업담당": RoleSales,
}

func normalizeRole(role string) string {
	role = strings.TrimSpace(role)
	if alias, ok := roleAliases[role]; ok {
		return alias
	}
	return strings.ToLower(role)
}

// AuthMiddleware valida el Bearer Token JWT y carga employee_id, nombre y rol en c.Locals.
func AuthMiddleware(jwtSecret, issuer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, issuer, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalEmployeeID, claims.EmployeeID)
		c.Locals(LocalEmployeeName, claims.Name)
		c.Locals(LocalRole, normalizeRole(claims.Role))
		return c.Next()
	}
}

// RequireRole deja pasar solo a los roles indicados. Debe ir después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[normalizeRole(r)] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if _, ok := allowed[role]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para este recurso"})
		}
		return c.Next()
	}
}

// RequireSelfOrAdmin deja pasar al admin o al propio representante cuyo id o nombre
// coincide con el parámetro de ruta param.
func RequireSelfOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if role == RoleAdmin {
			return c.Next()
		}
		target := c.Params(param)
		if target != "" && (target == GetEmployeeID(c) || target == GetEmployeeName(c)) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo puede consultar sus propios KPI"})
	}
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetEmployeeID devuelve el employee_id del token (después del middleware de auth).
func GetEmployeeID(c *fiber.Ctx) string { return localString(c, LocalEmployeeID) }

// GetEmployeeName devuelve el nombre del empleado del token.
func GetEmployeeName(c *fiber.Ctx) string { return localString(c, LocalEmployeeName) }

// GetRole devuelve el rol normalizado del token.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }
