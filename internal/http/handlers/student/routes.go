package student

import "net/http"

// Register mounts every student route on router.
//
// Route table:
//
//	POST   /api/students          → create a new student
//	GET    /api/students          → list / search students (?q=&department=)
//	POST   /api/students/reload   → re-read all students from storage
//	GET    /api/students/{id}     → get one student by ID
//	PUT    /api/students/{id}     → replace a student
//	DELETE /api/students/{id}     → delete a student
//	GET    /api/departments       → configured and in-use departments
func Register(router *http.ServeMux, records Store, departments []string) {
	router.HandleFunc("POST /api/students", New(records))
	router.HandleFunc("GET /api/students", GetList(records))
	router.HandleFunc("POST /api/students/reload", Reload(records))
	router.HandleFunc("GET /api/students/{id}", GetByID(records))
	router.HandleFunc("PUT /api/students/{id}", Update(records))
	router.HandleFunc("DELETE /api/students/{id}", Delete(records))
	router.HandleFunc("GET /api/departments", Departments(records, departments))
}
