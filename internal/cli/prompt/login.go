package prompt

// MinCredentialLength is the shortest username or password the login form accepts.
const MinCredentialLength = 5

// Credentials asks for whatever is missing of username and password.
// Values already provided (e.g. from flags) are returned untouched.
// The username may also be an email address.
func Credentials(username, password string) (string, string, error) {
	var err error
	if username == "" {
		username, err = Input("Username or email", "", MinLength("username", MinCredentialLength))
		if err != nil {
			return "", "", err
		}
	}
	if password == "" {
		password, err = Password("Password", MinLength("password", MinCredentialLength))
		if err != nil {
			return "", "", err
		}
	}
	return username, password, nil
}
