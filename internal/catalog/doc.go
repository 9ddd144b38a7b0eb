// Package catalog содержит встроенные actions воркера.
//
// Register добавляет их в реестр при старте:
//
//	reg := actions.NewRegistry(logger)
//	catalog.Register(reg, catalog.Deps{Users: repo.NewUserRepo(pool)})
//
// Actions:
//   - echo — возвращает message из payload
//   - add_numbers — сумма a и b (контракт JSON Schema)
//   - greet — приветствие на одном из языков (контракт на структуре)
//   - create_profile — профиль с вложенными полями и обязательным account
//   - users.create, users.get, users.list, users.delete — пользователи в Postgres
//   - http.request — HTTP-запрос под собственным rate limit
//   - template.render — text/template по данным payload
//
// users.* регистрируются только если передан Deps.Users.
package catalog
