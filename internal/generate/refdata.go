package generate

// French general chart of accounts (plan comptable général) subset used for
// generation. accountNumbers fixes the iteration order so a seed always
// produces the same ledger.
var accountNumbers = []string{
	"101000", "106100", "120000", "164000",
	"205000", "213500", "218300", "281830",
	"401000", "411000", "421000", "431000", "445660", "445710", "455000",
	"512000", "530000",
	"601000", "606300", "606400", "606800", "613200", "615000", "616000",
	"622600", "623000", "625100", "626000", "627000", "641100", "645000", "681120",
	"701000", "706000", "708500", "764000", "775000",
}

var accounts = map[string]string{
	"101000": "Capital",
	"106100": "Réserve légale",
	"120000": "Résultat de l'exercice",
	"164000": "Emprunts auprès des établissements de crédit",
	"205000": "Logiciels",
	"213500": "Installations générales",
	"218300": "Matériel de bureau et informatique",
	"281830": "Amortissements du matériel de bureau",
	"401000": "Fournisseurs",
	"411000": "Clients",
	"421000": "Personnel - rémunérations dues",
	"431000": "Sécurité sociale",
	"445660": "TVA déductible",
	"445710": "TVA collectée",
	"455000": "Associés - comptes courants",
	"512000": "Banque",
	"530000": "Caisse",
	"601000": "Achats de matières premières",
	"606300": "Fournitures d'entretien et petit équipement",
	"606400": "Fournitures administratives",
	"606800": "Autres matières et fournitures",
	"613200": "Locations immobilières",
	"615000": "Entretien et réparations",
	"616000": "Primes d'assurance",
	"622600": "Honoraires",
	"623000": "Publicité, publications, relations publiques",
	"625100": "Voyages et déplacements",
	"626000": "Frais postaux et de télécommunications",
	"627000": "Services bancaires",
	"641100": "Salaires et appointements",
	"645000": "Charges de sécurité sociale",
	"681120": "Dotations aux amortissements",
	"701000": "Ventes de produits finis",
	"706000": "Prestations de services",
	"708500": "Ports et frais facturés",
	"764000": "Revenus des titres de placements",
	"775000": "Produits des cessions d'éléments d'actif",
}

var journals = map[string]string{
	"AC": "Achats",
	"VE": "Ventes",
	"BQ": "Banque",
	"CA": "Caisse",
	"OD": "Opérations diverses",
	"AN": "À nouveau",
}

var expenseDescriptions = []string{
	"Fournitures de bureau",
	"Honoraires comptables",
	"Location bureaux",
	"Frais de déplacement",
	"Assurance professionnelle",
	"Électricité et eau",
	"Maintenance informatique",
	"Communication et marketing",
	"Formation du personnel",
	"Carburant véhicule société",
}

var salesDescriptions = []string{
	"Facture client",
	"Prestation de conseil",
	"Vente de marchandises",
	"Services professionnels",
	"Abonnement mensuel",
	"Maintenance annuelle",
	"Formation client",
	"Développement logiciel",
	"Audit qualité",
	"Étude de marché",
}

var miscDescriptions = []string{
	"Remboursement de frais",
	"Acompte fournisseur",
	"Régularisation comptable",
	"Dotation aux amortissements",
	"Opération interne",
}

var companyNames = []string{
	"Durand et Fils",
	"SARL Lemoine",
	"Atelier Moreau",
	"Groupe Fontaine",
	"Bureau Vallée Ouest",
	"Transports Girard",
	"Imprimerie Chevalier",
	"Menuiserie Roux",
	"Conseil Delacroix",
	"Société Nouvelle Perrin",
	"Les Vergers de Touraine",
	"Électricité Générale Blanc",
	"Cabinet Aubert",
	"Boulangerie Martin",
	"Informatique Plus SARL",
}

var frenchMonths = []string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}
