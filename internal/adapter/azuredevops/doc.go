// Package azuredevops реализует тонкий REST клиент Azure DevOps Services
// (API 7.0) и sub-API, которые используют шлюзы MCP.
//
// Client - подключение: привязан к одному URL организации и одному
// персональному токену доступа и не меняется после создания. Из него
// получаются sub-API, разделённые по Interface Segregation:
//   - WorkItemTracking - пакетное чтение work items, WIQL, создание и обновление
//   - Work - доски команды
//   - Wiki - вики и их страницы (прямой HTTP с Basic auth)
//   - Core - проекты организации
//   - Build - определения сборок и запуск сборок
//   - Git - pull requests
//
// # Ошибки
//
// Любой ответ вне 2xx, а также 203 (так Azure DevOps отвечает страницей входа
// на отклонённый PAT), возвращается как *ResponseError со статусом, методом,
// URL запроса и телом ответа. Категоризацию ошибок пакет не выполняет,
// это делает слой шлюзов.
//
// # Тестирование
//
// Пакет azdotest содержит моки всех sub-API на функциональных полях.
package azuredevops
